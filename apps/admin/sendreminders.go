package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/reminder"
)

// sendReminders is the scheduled reminder run; meant to be called daily (cron).
func (cli *commandLine) sendReminders(reminderType string, force bool) error {
	reminderType = core.CleanString(reminderType, true /* lower */)
	switch reminderType {
	case reminder.ChannelSMS, reminder.ChannelWhatsApp, reminder.ChannelEmail, reminder.ChannelBoth:
	default:
		return fmt.Errorf("unknown reminder type %q", reminderType)
	}

	res, err := cli.reminderSvc.RunScheduled(context.Background(), reminderType, cli.now(), force)
	if err != nil {
		if errors.Is(err, reminder.ErrNotDue) {
			_, _ = fmt.Fprintln(cli.out, "Nothing to do: "+err.Error())
			return nil
		}
		return err
	}

	cli.logger.Info(fmt.Sprintf("%s reminders: %d sent, %d failed", reminderType, res.Sent, res.Failed))
	_, _ = fmt.Fprintf(cli.out, "%d sent, %d failed\n", res.Sent, res.Failed)
	return nil
}
