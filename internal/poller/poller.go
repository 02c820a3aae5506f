package poller

import (
	"context"
	"fmt"
	"time"

	"mail-telegram-bridge/internal/dispatcher"
	"mail-telegram-bridge/internal/emailprocessor"
	"mail-telegram-bridge/internal/health"
	imapclient "mail-telegram-bridge/internal/imap"
	"mail-telegram-bridge/internal/logging"
	"mail-telegram-bridge/internal/models"
)

// SessionError is a mailbox failure that ends the whole cycle
type SessionError struct {
	Op  string
	Err error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

// Sleeper waits for d or until ctx is done, whichever comes first
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the default Sleeper
func SleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type Poller struct {
	cfg        *models.Config
	newClient  imapclient.Factory
	dispatcher *dispatcher.Service
	status     *health.Status

	// Sleep is swapped out in tests
	Sleep Sleeper
	now   func() time.Time
}

// NewPoller creates a poll loop opening one mailbox session per cycle through newClient.
// status may be nil.
func NewPoller(cfg *models.Config, newClient imapclient.Factory, dispatcher *dispatcher.Service, status *health.Status) *Poller {
	return &Poller{
		cfg:        cfg,
		newClient:  newClient,
		dispatcher: dispatcher,
		status:     status,
		Sleep:      SleepContext,
		now:        time.Now,
	}
}

// Run repeats cycles until ctx is cancelled. A successful cycle waits CheckInterval before the next one,
// a failed cycle waits RetryInterval.
func (p *Poller) Run(ctx context.Context) error {
	logging.Log.Infof("Starting mailbox polling on %s, checking every %s", p.cfg.Mail.Server, p.cfg.CheckInterval)

	for {
		result := p.RunCycle(ctx)
		if err := ctx.Err(); err != nil {
			return err
		}

		interval := p.cfg.CheckInterval
		if !result.OK() {
			interval = p.cfg.RetryInterval
			logging.Log.Warnf("Cycle failed, retrying in %s", interval)
		}

		p.setState(models.StateSleeping)
		if err := p.Sleep(ctx, interval); err != nil {
			return err
		}
		p.setState(models.StateIdle)
	}
}

// RunCycle opens a session, relays every unseen message and closes the session.
// Failures of single messages are counted in the result, only session failures set Err.
func (p *Poller) RunCycle(ctx context.Context) models.CycleResult {
	result := p.cycle(ctx)

	if result.OK() {
		if result.Processed > 0 || result.Failed > 0 {
			logging.Log.Infof("Cycle done: %d processed, %d failed", result.Processed, result.Failed)
		}
	} else {
		logging.Log.WithError(result.Err).Error("Cycle aborted")
	}

	if p.status != nil {
		p.status.Record(result, p.now())
	}
	p.setState(models.StateCycleDone)
	return result
}

func (p *Poller) cycle(ctx context.Context) (result models.CycleResult) {
	client := p.newClient()
	defer func() {
		if err := client.Close(); err != nil {
			logging.Log.WithError(err).Debug("Error closing mailbox session")
		}
	}()

	p.setState(models.StateSessionOpen)
	if err := p.open(client); err != nil {
		result.Err = err
		return result
	}

	p.setState(models.StateSearching)
	uids, err := client.ListUnseen()
	if err != nil {
		result.Err = &SessionError{Op: "search", Err: err}
		return result
	}
	if len(uids) == 0 {
		logging.Log.Debug("No unseen messages")
		return result
	}
	logging.Log.Infof("Found %d unseen message(s)", len(uids))

	processor := emailprocessor.NewProcessor(client, p.dispatcher)

	p.setState(models.StateProcessingMessage)
	for _, uid := range uids {
		if err := ctx.Err(); err != nil {
			result.Err = err
			return result
		}

		if err := processor.ProcessEmail(ctx, uid); err != nil {
			logging.Log.WithField("uid", uid).WithError(err).Error("Error processing email")
			result.Failed++
			continue
		}
		result.Processed++
	}

	return result
}

func (p *Poller) open(client imapclient.Client) error {
	if err := client.Connect(p.cfg.Mail.Server); err != nil {
		return &SessionError{Op: "connect", Err: err}
	}
	if err := client.Login(p.cfg.Mail.Username, p.cfg.Mail.Password); err != nil {
		return &SessionError{Op: "login", Err: err}
	}
	if err := client.SelectMailbox(p.cfg.Mail.MailBox); err != nil {
		return &SessionError{Op: "select", Err: err}
	}
	return nil
}

func (p *Poller) setState(state models.CycleState) {
	if p.status != nil {
		p.status.SetState(state)
	}
}
