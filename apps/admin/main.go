package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/fee"
	"github.com/trezcool/madrasa/core/reminder"
	"github.com/trezcool/madrasa/core/student"
	emailsvc "github.com/trezcool/madrasa/services/email"
	logsvc "github.com/trezcool/madrasa/services/logger"
	"github.com/trezcool/madrasa/services/notify"
	"github.com/trezcool/madrasa/storage/database"
	sqlxrepos "github.com/trezcool/madrasa/storage/database/sqlx"
)

const mailGracePeriod = 5 * time.Second

func main() {
	conf := core.NewConfig()
	logger := logsvc.New("ADMIN", conf)

	// set up DB
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := database.Open(ctx, conf)
	cancel()
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	feeRepo := sqlxrepos.NewFeeRepository(db)
	studentSvc := student.NewService(sqlxrepos.NewStudentRepository(db), feeRepo, conf)
	feeSvc := fee.NewService(feeRepo, studentSvc)

	// start CLI
	cli := commandLine{
		db:      db,
		usrRepo: sqlxrepos.NewUserRepository(db),
		mailSvc: mailSvc,
		feeSvc:  feeSvc,
		reminderSvc: reminder.NewService(
			sqlxrepos.NewReminderRepository(db), feeSvc, notify.Channels(mailSvc, logger, conf), conf, logger,
		),
		logger: logger,
		out:    os.Stdout,
		now:    time.Now,
	}
	err = cli.run(os.Args)
	if len(os.Args) > 1 && (os.Args[1] == "sendreminders" || os.Args[1] == "exportregister") {
		time.Sleep(mailGracePeriod) // e-mails are sent in the background
	}
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %s", err), err)
		}
		os.Exit(1)
	}
}
