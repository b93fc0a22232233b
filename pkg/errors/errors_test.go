package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"testing"
)

func TestProviderErrorInterface(t *testing.T) {
	tests := []struct {
		name     string
		err      ProviderError
		wantCode int
		wantCat  Category
		wantSev  Severity
	}{
		{
			name:     "nil endpoint",
			err:      NilEndpoint("ListenerStarted", 1),
			wantCode: CodeNilEndpoint,
			wantCat:  CategoryContract,
			wantSev:  SeverityCritical,
		},
		{
			name:     "nil socket",
			err:      NilSocket("Prepare"),
			wantCode: CodeNilSocket,
			wantCat:  CategoryContract,
			wantSev:  SeverityCritical,
		},
		{
			name:     "connection setup failed",
			err:      ConnectionSetupFailed("server", "prepare", "127.0.0.1:5000", stderrors.New("boom")),
			wantCode: CodeConnectionSetupFailed,
			wantCat:  CategoryConnection,
			wantSev:  SeverityError,
		},
		{
			name:     "unknown initializer",
			err:      UnknownInitializer("nope"),
			wantCode: CodeUnknownInitializer,
			wantCat:  CategoryConfig,
			wantSev:  SeverityError,
		},
		{
			name:     "bind failed",
			err:      ListenerBindFailed(2, "0.0.0.0:9000", stderrors.New("address in use")),
			wantCode: CodeListenerBindFailed,
			wantCat:  CategoryListener,
			wantSev:  SeverityCritical,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Code(); got != tt.wantCode {
				t.Errorf("Code() = %v, want %v", got, tt.wantCode)
			}
			if got := tt.err.Category(); got != tt.wantCat {
				t.Errorf("Category() = %v, want %v", got, tt.wantCat)
			}
			if got := tt.err.Severity(); got != tt.wantSev {
				t.Errorf("Severity() = %v, want %v", got, tt.wantSev)
			}
			if tt.err.Error() == "" {
				t.Error("Error() returned empty string")
			}
			if tt.err.Context() == nil || tt.err.Context().Timestamp.IsZero() {
				t.Error("expected context with timestamp")
			}
			if GetErrorCodeCategory(tt.wantCode) != tt.wantCat {
				t.Errorf("registry category for %d = %v, want %v", tt.wantCode, GetErrorCodeCategory(tt.wantCode), tt.wantCat)
			}
		})
	}
}

func TestContractViolationClassification(t *testing.T) {
	contract := NilSocket("Prepare")
	setup := ConnectionSetupFailed("client", "prepare", "", stderrors.New("setsockopt"))

	if !IsContractViolation(contract) {
		t.Error("nil socket should be a contract violation")
	}
	if IsContractViolation(setup) {
		t.Error("setup failure must not be classified as a contract violation")
	}

	wrapped := fmt.Errorf("accept loop: %w", contract)
	if !IsContractViolation(wrapped) {
		t.Error("contract violation should be found through wrapping")
	}
	if !IsCode(wrapped, CodeNilSocket) {
		t.Error("IsCode should see through wrapping")
	}
}

func TestErrorChaining(t *testing.T) {
	root := stderrors.New("connection reset")
	err := ConnectionSetupFailed("server", "prepare", "10.0.0.1:1234", root)

	if !stderrors.Is(err, root) {
		t.Error("expected errors.Is to find the cause")
	}
	data, ok := err.Data().(*ConnectionErrorData)
	if !ok {
		t.Fatalf("Data() = %T, want *ConnectionErrorData", err.Data())
	}
	if data.Side != "server" || data.Stage != "prepare" || data.Reason != "connection reset" {
		t.Errorf("unexpected data: %+v", data)
	}
}

func TestWithDetailAndContext(t *testing.T) {
	base := InvalidConfig("initializer.type", "", "a registered type")
	detailed := base.WithDetail("first").WithDetail("second")

	if detailed.Details() != "first; second" {
		t.Errorf("Details() = %q", detailed.Details())
	}
	if base.Details() != "" {
		t.Error("WithDetail must not mutate the receiver")
	}

	withCtx := base.WithContext(&Context{ConnectionID: "c-1", Operation: "dial"})
	if withCtx.Context().ConnectionID != "c-1" {
		t.Errorf("ConnectionID = %q", withCtx.Context().ConnectionID)
	}
	if withCtx.Context().Timestamp.IsZero() {
		t.Error("WithContext should fill a zero timestamp")
	}
}

func TestErrorJSON(t *testing.T) {
	err := NilEndpoint("ListenerStopped", 3)

	raw, jerr := json.Marshal(err)
	if jerr != nil {
		t.Fatalf("marshal: %v", jerr)
	}

	var decoded map[string]interface{}
	if jerr := json.Unmarshal(raw, &decoded); jerr != nil {
		t.Fatalf("unmarshal: %v", jerr)
	}
	if decoded["name"] != "NilEndpoint" {
		t.Errorf("name = %v", decoded["name"])
	}
	if decoded["category"] != string(CategoryContract) {
		t.Errorf("category = %v", decoded["category"])
	}
}

func TestUnknownCode(t *testing.T) {
	if GetErrorCodeName(-1) != "UnknownError" {
		t.Error("unregistered code should be UnknownError")
	}
	if GetErrorCodeCategory(-1) != CategoryInternal {
		t.Error("unregistered code should default to internal")
	}
	if len(ListErrorCodes()) == 0 {
		t.Error("registry should not be empty")
	}
}
