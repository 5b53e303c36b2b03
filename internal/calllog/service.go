package calllog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"callops/internal/store"
	"callops/internal/sysconfig"
	"callops/internal/telephony"
)

var (
	ErrInvalidCallLog = errors.New("calllog: number, name and agent are required")
	ErrEmptySheet     = errors.New("calllog: sheet contained no importable rows")
)

// Settings is the runtime config lookup (implemented by sysconfig.Service).
type Settings interface {
	Value(ctx context.Context, key string) (string, error)
}

// Service owns call-log business logic: CRUD, outbound call origination,
// the TwiML answer for originated calls, sheet imports and provider status
// callbacks.
type Service struct {
	repo     Repository
	settings Settings
	dialers  telephony.DialerFactory
	client   *http.Client
}

func NewService(repo Repository, settings Settings, dialers telephony.DialerFactory) *Service {
	return &Service{
		repo:     repo,
		settings: settings,
		dialers:  dialers,
		client:   http.DefaultClient,
	}
}

func (s *Service) Create(ctx context.Context, cl CallLog) (CallLog, error) {
	if err := validate(cl); err != nil {
		return CallLog{}, err
	}
	return s.repo.Create(ctx, cl)
}

func (s *Service) CreateMany(ctx context.Context, cls []CallLog) ([]CallLog, error) {
	for _, cl := range cls {
		if err := validate(cl); err != nil {
			return nil, err
		}
	}
	return s.repo.CreateMany(ctx, cls)
}

func (s *Service) List(ctx context.Context, q store.ListQuery) ([]CallLog, error) {
	return s.repo.List(ctx, q)
}

func (s *Service) Count(ctx context.Context, filters []store.Filter) (int64, error) {
	return s.repo.Count(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (CallLog, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, p Patch) (CallLog, error) {
	return s.repo.Update(ctx, id, p)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// ByCallSid is the relay's correlation lookup.
func (s *Service) ByCallSid(ctx context.Context, callSid string) (CallLog, error) {
	return s.repo.ByCallSid(ctx, callSid)
}

// UpdateStatus changes only the status column.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status string) error {
	return s.repo.UpdateStatus(ctx, id, status)
}

// StartOutboundCall originates the call for one log entry and records the
// provider's call sid on the row. Provider credentials and the public server
// URL come from the settings store.
func (s *Service) StartOutboundCall(ctx context.Context, id int64) (string, error) {
	cl, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", err
	}

	serverURL, err := s.requiredSetting(ctx, sysconfig.KeyServerURL)
	if err != nil {
		return "", err
	}
	from, err := s.requiredSetting(ctx, sysconfig.KeyTwilioPhoneNumber)
	if err != nil {
		return "", err
	}
	accountSID, err := s.requiredSetting(ctx, sysconfig.KeyTwilioAccountSID)
	if err != nil {
		return "", err
	}
	authToken, err := s.requiredSetting(ctx, sysconfig.KeyTwilioAuthToken)
	if err != nil {
		return "", err
	}

	base := strings.TrimRight(serverURL, "/")
	call, err := s.dialers(accountSID, authToken).StartCall(ctx, telephony.OutboundCallRequest{
		To:                cl.Number,
		From:              from,
		AnswerURL:         base + "/api/call-logs/outbound-call-handler",
		StatusCallbackURL: base + "/api/call-logs/status-callback",
	})
	if err != nil {
		return "", err
	}

	if _, err := s.repo.Update(ctx, id, Patch{CallSid: &call.Sid}); err != nil {
		// The call is already ringing; surface the bookkeeping failure but
		// keep the sid so the caller can retry the update.
		return call.Sid, fmt.Errorf("calllog: record call sid: %w", err)
	}
	return call.Sid, nil
}

// StreamTwiML renders the answer document pointing the provider at this
// service's media-stream endpoint.
func (s *Service) StreamTwiML(ctx context.Context) (string, error) {
	serverURL, err := s.requiredSetting(ctx, sysconfig.KeyServerURL)
	if err != nil {
		return "", err
	}
	wsURL := strings.Replace(strings.TrimRight(serverURL, "/"), "http", "ws", 1) + "/media-stream"
	return telephony.StreamTwiML(wsURL)
}

type sheetRow struct {
	Name   string `json:"name"`
	Number string `json:"number"`
}

// ImportFromSheet fetches a JSON array of {name, number} rows and creates
// pending call logs assigned to the given agent.
func (s *Service) ImportFromSheet(ctx context.Context, agentID int64, sheetURL string) ([]CallLog, error) {
	if agentID <= 0 {
		return nil, ErrInvalidCallLog
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sheetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("calllog: sheet request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calllog: fetch sheet: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("calllog: fetch sheet: unexpected status %d", resp.StatusCode)
	}

	var rows []sheetRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("calllog: decode sheet: %w", err)
	}

	cls := make([]CallLog, 0, len(rows))
	for _, row := range rows {
		if strings.TrimSpace(row.Name) == "" || strings.TrimSpace(row.Number) == "" {
			continue
		}
		cls = append(cls, CallLog{
			Name:    strings.TrimSpace(row.Name),
			Number:  strings.TrimSpace(row.Number),
			AgentID: agentID,
			Status:  StatusPending,
		})
	}
	if len(cls) == 0 {
		return nil, ErrEmptySheet
	}
	return s.repo.CreateMany(ctx, cls)
}

// RecordCallStatus applies a provider status callback to the matching row:
// the reported duration is stored, and terminal failure states flip the
// status to failed.
func (s *Service) RecordCallStatus(ctx context.Context, form telephony.StatusCallbackForm) error {
	if form.CallSid == "" {
		return errors.New("calllog: status callback without CallSid")
	}
	cl, err := s.repo.ByCallSid(ctx, form.CallSid)
	if err != nil {
		return err
	}

	patch := Patch{}
	if form.CallDuration != "" {
		patch.Duration = &form.CallDuration
	}
	switch form.CallStatus {
	case "failed", "busy", "no-answer", "canceled":
		status := StatusFailed
		patch.Status = &status
	}
	if patch.Duration == nil && patch.Status == nil {
		return nil
	}
	_, err = s.repo.Update(ctx, cl.ID, patch)
	return err
}

func (s *Service) requiredSetting(ctx context.Context, key string) (string, error) {
	v, err := s.settings.Value(ctx, key)
	if err != nil {
		return "", fmt.Errorf("calllog: setting %s: %w", key, err)
	}
	if strings.TrimSpace(v) == "" {
		return "", fmt.Errorf("calllog: setting %s is empty", key)
	}
	return v, nil
}

func validate(cl CallLog) error {
	if strings.TrimSpace(cl.Number) == "" || strings.TrimSpace(cl.Name) == "" || cl.AgentID <= 0 {
		return ErrInvalidCallLog
	}
	return nil
}
