package main

import (
	"context"
	"fmt"
	"net/mail"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/fee"
)

// exportRegister writes the unfiltered monthly register to out (or to its default file name),
// then mails it to mailTo if given.
func (cli *commandLine) exportRegister(month string, year int, format, out, mailTo string) error {
	format = core.CleanString(format, true /* lower */)
	if format != "csv" && format != "xlsx" {
		return fmt.Errorf("unknown format %q: must be csv or xlsx", format)
	}
	var rcpt *mail.Address
	if mailTo = core.CleanString(mailTo); mailTo != "" {
		addr, err := mail.ParseAddress(mailTo)
		if err != nil {
			return fmt.Errorf("invalid e-mail address %q", mailTo)
		}
		rcpt = addr
	}
	normalized, ok := core.NormalizeMonth(month)
	if !ok {
		return fmt.Errorf("invalid month name %q", month)
	}

	reg, err := cli.feeSvc.Register(context.Background(), fee.Scope{Month: normalized, Year: year}, fee.RegisterFilter{})
	if err != nil {
		if ierr, ok := core.AsIntegrityError(err); ok {
			for _, iss := range ierr.Issues {
				cli.logger.Warn(iss.Kind + ": " + iss.Message)
			}
		}
		return err
	}

	if out == "" {
		out = reg.Filename(format)
	}
	f, err := os.Create(out)
	if err != nil {
		return errors.Wrap(err, "creating export file")
	}
	defer func() { _ = f.Close() }()

	if format == "xlsx" {
		err = reg.WriteXLSX(f)
	} else {
		err = reg.WriteCSV(f)
	}
	if err != nil {
		return errors.Wrap(err, "writing register")
	}

	if err = f.Close(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cli.out, "%s: %d students, collected %s, outstanding %s -> %s\n",
		reg.Title(), reg.Totals.Students, reg.Totals.Collected, reg.Totals.Outstanding, out)

	if rcpt != nil {
		return cli.mailRegister(reg, out, *rcpt)
	}
	return nil
}

func (cli *commandLine) mailRegister(reg *fee.Register, path string, to mail.Address) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening export file")
	}
	defer func() { _ = f.Close() }()

	msg := &core.EmailMessage{
		To:           []mail.Address{to},
		Subject:      reg.Title(),
		TemplateName: "fee_register",
		TemplateData: map[string]interface{}{
			"Month":       reg.Scope.Month,
			"Year":        reg.Scope.Year,
			"Collected":   reg.Totals.Collected.StringFixed(2),
			"Outstanding": reg.Totals.Outstanding.StringFixed(2),
		},
	}
	if err = msg.Attach(f, filepath.Base(path)); err != nil {
		return errors.Wrap(err, "attaching register")
	}
	cli.mailSvc.SendMessages(msg)
	cli.logger.Info(fmt.Sprintf("%s mailed to %s", reg.Title(), to.Address))
	return nil
}
