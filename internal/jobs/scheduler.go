package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/chaincred/chaincred/internal/chain"
	"github.com/chaincred/chaincred/internal/credit"
	"github.com/chaincred/chaincred/internal/loans"
)

// penaltyImpact is logged against a borrower once per overdue loan.
const penaltyImpact = -50

// Scheduler runs the periodic maintenance jobs.
type Scheduler struct {
	cron    *cron.Cron
	loans   loans.Repository
	credits *credit.Service
	logger  *slog.Logger
}

// New builds a scheduler; call Start to begin running jobs.
func New(loanRepo loans.Repository, credits *credit.Service, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		loans:   loanRepo,
		credits: credits,
		logger:  logger,
	}
}

// Start registers the overdue sweep on the given cron schedule and starts
// the scheduler.
func (s *Scheduler) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		s.SweepOverdue(ctx)
	}); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// SweepOverdue penalizes every overdue loan exactly once: a missed-payment
// record goes into the registry, the loan is flagged penalized and the
// borrower's score refreshed.
func (s *Scheduler) SweepOverdue(ctx context.Context) {
	overdue, err := s.loans.ListOverdue(ctx, time.Now().UTC())
	if err != nil {
		s.logger.Error("list overdue loans", "error", err)
		return
	}

	for _, loan := range overdue {
		if _, err := s.credits.AddRecord(ctx, chain.CreditRecord{
			Address:     loan.Borrower,
			Amount:      loan.Amount,
			Provider:    "chaincred",
			RecordType:  chain.RecordTypeMissedPayment,
			ScoreImpact: penaltyImpact,
		}); err != nil {
			s.logger.Error("log missed payment", "loan_id", loan.ID, "error", err)
			continue
		}

		loan.Penalized = true
		if err := s.loans.Update(ctx, loan); err != nil {
			s.logger.Error("flag loan penalized", "loan_id", loan.ID, "error", err)
			continue
		}

		if _, err := s.credits.Recalculate(ctx, loan.Borrower); err != nil {
			s.logger.Warn("refresh score after penalty", "address", loan.Borrower, "error", err)
		}

		s.logger.Info("loan penalized", "loan_id", loan.ID, "borrower", loan.Borrower)
	}
}
