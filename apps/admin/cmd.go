package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/fee"
	"github.com/trezcool/madrasa/core/reminder"
	"github.com/trezcool/madrasa/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db          *sqlx.DB
	usrRepo     user.Repository
	mailSvc     core.EmailService
	feeSvc      fee.Service
	reminderSvc reminder.Service
	logger      core.Logger
	out         io.Writer
	now         func() time.Time
}

func (cli *commandLine) printUsage() {
	_, _ = fmt.Fprintln(cli.out, "Usage:")
	_, _ = fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a goose command (up, down, status, ...)")
	_, _ = fmt.Fprintln(cli.out, "  adduser -username USERNAME -email EMAIL [-name NAME] - create or re-enable an admin account")
	_, _ = fmt.Fprintln(cli.out, "  resetpassword -username USERNAME|EMAIL - reset user's password")
	_, _ = fmt.Fprintln(cli.out, "  exportregister [-month MONTH] [-year YEAR] [-format csv|xlsx] [-out FILE] [-mailto EMAIL] - write (and mail) the monthly fee register")
	_, _ = fmt.Fprintln(cli.out, "  sendreminders [-type sms|whatsapp|email|both] [-force] - send the scheduled fee reminders")
}

// promptPassword reads a password from the terminal without echoing it.
func (cli *commandLine) promptPassword() (string, error) {
	_, _ = fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	_, _ = fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserCmd.SetOutput(cli.out)
	addUserUname := addUserCmd.String("username", "", "The user's username.")
	addUserEmail := addUserCmd.String("email", "", "The user's email. The password will be prompted next.")
	addUserName := addUserCmd.String("name", "", "The user's full name (defaults to the username).")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordCmd.SetOutput(cli.out)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username or email. The password will be prompted next.")

	now := cli.now()
	exportCmd := flag.NewFlagSet("exportregister", flag.ContinueOnError)
	exportCmd.SetOutput(cli.out)
	exportMonth := exportCmd.String("month", core.MonthName(now.Month()), "The month of the register.")
	exportYear := exportCmd.Int("year", now.Year(), "The year of the register.")
	exportFormat := exportCmd.String("format", "csv", "csv or xlsx.")
	exportOut := exportCmd.String("out", "", "The output file (defaults to fee-register-MONTH-YEAR.FORMAT).")
	exportMailTo := exportCmd.String("mailto", "", "An e-mail address to send the register to.")

	remindersCmd := flag.NewFlagSet("sendreminders", flag.ContinueOnError)
	remindersCmd.SetOutput(cli.out)
	remindersType := remindersCmd.String("type", reminder.ChannelSMS, "sms, whatsapp, email or both.")
	remindersForce := remindersCmd.Bool("force", false, "Send even when the reminder settings say it is not the day.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *addUserUname == "" || *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(*addUserName, *addUserUname, *addUserEmail, pwd)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordUname, pwd)

	case "exportregister":
		if err := exportCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		return cli.exportRegister(*exportMonth, *exportYear, *exportFormat, *exportOut, *exportMailTo)

	case "sendreminders":
		if err := remindersCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		return cli.sendReminders(*remindersType, *remindersForce)

	default:
		cli.printUsage()
		return errHelp
	}
}
