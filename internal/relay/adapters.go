package relay

import (
	"context"

	"callops/internal/agents"
	"callops/internal/calllog"
	"callops/internal/sysconfig"
)

// The adapters below bind the domain services to the narrow interfaces the
// session needs, so the session itself stays testable with in-memory fakes.

type settingsCreds struct{ svc *sysconfig.Service }

// NewCredentials reads the realtime API key from system config on demand, so
// operators can rotate the key without a restart.
func NewCredentials(svc *sysconfig.Service) Credentials { return settingsCreds{svc: svc} }

func (a settingsCreds) RealtimeAPIKey(ctx context.Context) (string, error) {
	return a.svc.Value(ctx, sysconfig.KeyOpenAIAPIKey)
}

type callLogRecords struct{ svc *calllog.Service }

func NewCallRecords(svc *calllog.Service) CallRecords { return callLogRecords{svc: svc} }

func (a callLogRecords) ByCallSid(ctx context.Context, callSid string) (CallRecord, error) {
	cl, err := a.svc.ByCallSid(ctx, callSid)
	if err != nil {
		return CallRecord{}, err
	}
	return CallRecord{ID: cl.ID, AgentID: cl.AgentID, Name: cl.Name}, nil
}

func (a callLogRecords) UpdateStatus(ctx context.Context, id int64, status string) error {
	return a.svc.UpdateStatus(ctx, id, status)
}

type agentPrompts struct{ svc *agents.Service }

func NewAgentPrompts(svc *agents.Service) AgentPrompts { return agentPrompts{svc: svc} }

func (a agentPrompts) Prompt(ctx context.Context, agentID int64) (string, error) {
	return a.svc.Prompt(ctx, agentID)
}
