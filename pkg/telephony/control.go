package telephony

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	api "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/voxline-ai/voxline/pkg/errorsx"
	"github.com/voxline-ai/voxline/pkg/resilience"
)

type ControlConfig struct {
	AccountSID       string `mapstructure:"account_sid"`
	AuthToken        string `mapstructure:"auth_token"`
	RingTimeoutSec   int    `mapstructure:"ring_timeout_sec"`
	MachineDetection bool   `mapstructure:"machine_detection"`
	MaxRetries       int    `mapstructure:"max_retries"`
	RetryBackoffMS   int    `mapstructure:"retry_backoff_ms"`
}

func (c ControlConfig) withDefaults() ControlConfig {
	if c.RingTimeoutSec <= 0 {
		c.RingTimeoutSec = 30
	}
	return c
}

// CallbackURLs carries the webhook endpoints handed to the provider when a
// call is placed.
type CallbackURLs struct {
	AnswerURL string
	StatusURL string
}

type callCreator interface {
	CreateCall(params *api.CreateCallParams) (*api.ApiV2010Call, error)
}

type callUpdater interface {
	UpdateCall(sid string, params *api.UpdateCallParams) (*api.ApiV2010Call, error)
}

// Controller wraps the provider's call-control REST API. InitiateCall sits
// outside the real-time loop and is retried; EndCall is idempotent.
type Controller struct {
	cfg     ControlConfig
	creator callCreator
	updater callUpdater
	retry   resilience.RetryPolicy
}

func NewController(cfg ControlConfig) *Controller {
	cfg = cfg.withDefaults()
	rest := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &Controller{
		cfg:     cfg,
		creator: rest.Api,
		updater: rest.Api,
		retry:   resilience.NewRetryPolicy(cfg.MaxRetries, time.Duration(cfg.RetryBackoffMS)*time.Millisecond),
	}
}

// InitiateCall places an outbound call and returns the provider call id.
func (c *Controller) InitiateCall(ctx context.Context, to, from string, callbacks CallbackURLs) (string, error) {
	_ = ctx
	if to == "" || from == "" {
		return "", errorsx.Wrap(errors.New("to/from required"), errorsx.ReasonCallInitiate)
	}
	if callbacks.AnswerURL == "" {
		return "", errorsx.Wrap(errors.New("answer url required"), errorsx.ReasonCallInitiate)
	}
	if c.cfg.AccountSID == "" || c.cfg.AuthToken == "" {
		return "", errorsx.Wrap(errors.New("missing provider credentials"), errorsx.ReasonCallInitiate)
	}

	params := &api.CreateCallParams{}
	params.SetTo(to)
	params.SetFrom(from)
	params.SetUrl(callbacks.AnswerURL)
	params.SetTimeout(c.cfg.RingTimeoutSec)
	if callbacks.StatusURL != "" {
		params.SetStatusCallback(callbacks.StatusURL)
		params.SetStatusCallbackEvent([]string{"completed", "no-answer", "failed"})
	}
	if c.cfg.MachineDetection {
		params.SetMachineDetection("Enable")
	}

	var sid string
	err := c.retry.Do(func() error {
		resp, err := c.creator.CreateCall(params)
		if err != nil {
			return err
		}
		if resp == nil || resp.Sid == nil {
			return fmt.Errorf("missing call sid")
		}
		sid = *resp.Sid
		return nil
	})
	if err != nil {
		return "", errorsx.Wrap(err, errorsx.ReasonCallInitiate)
	}
	return sid, nil
}

// EndCall terminates an active call. A not-found response means the call
// already ended and is treated as success.
func (c *Controller) EndCall(ctx context.Context, providerCallID string) error {
	_ = ctx
	if providerCallID == "" {
		return errorsx.Wrap(errors.New("call sid required"), errorsx.ReasonCallEnd)
	}
	params := &api.UpdateCallParams{}
	params.SetStatus("completed")
	_, err := c.updater.UpdateCall(providerCallID, params)
	if err == nil {
		return nil
	}
	var restErr *twilioclient.TwilioRestError
	if errors.As(err, &restErr) && (restErr.Status == 404 || restErr.Code == 20404) {
		return nil
	}
	return errorsx.Wrap(err, errorsx.ReasonCallEnd)
}
