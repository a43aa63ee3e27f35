package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/okaravasi/sonic-mgmt/internal/testutil"
	"github.com/okaravasi/sonic-mgmt/pkg/remote"
	"github.com/okaravasi/sonic-mgmt/pkg/report"
)

func TestInfra(t *testing.T) {
	if infra(nil) != nil {
		t.Error("infra(nil) != nil")
	}
	test := fmt.Errorf("%w: exit 1", errTestFailure)
	if got := infra(test); got != test {
		t.Errorf("infra() rewrapped a test failure: %v", got)
	}
	got := infra(errors.New("ssh: handshake failed"))
	if !errors.Is(got, errInfraError) || !strings.Contains(got.Error(), "handshake") {
		t.Errorf("infra() = %v", got)
	}
}

func TestRunOnPTF(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(*testutil.FakeExecutor)
		wantStatus report.Status
		wantErr    error
	}{
		{
			name:       "passes",
			setup:      func(f *testutil.FakeExecutor) { f.On("ptf", "OK") },
			wantStatus: report.StatusPassed,
		},
		{
			name:       "test fails",
			setup:      func(f *testutil.FakeExecutor) { f.Fail("ptf", 1, "FAILED (failures=1)") },
			wantStatus: report.StatusFailed,
			wantErr:    errTestFailure,
		},
		{
			name: "transport fails",
			setup: func(f *testutil.FakeExecutor) {
				f.OnFunc("ptf", func(string) (*remote.Result, error) { return nil, errors.New("connection reset") })
			},
			wantStatus: report.StatusError,
			wantErr:    errInfraError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ptf := testutil.NewFakeExecutor("10.0.0.200")
			tt.setup(ptf)
			suite := report.NewSuite("sai_qualify")

			err := runOnPTF(context.Background(), suite, ptf, "ptf --test-dir /root/sai_test", "ptf")
			if tt.wantErr == nil && err != nil || tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("runOnPTF() = %v, want %v", err, tt.wantErr)
			}
			if len(suite.Cases) != 1 || suite.Cases[0].Status != tt.wantStatus {
				t.Errorf("cases = %+v, want one %s", suite.Cases, tt.wantStatus)
			}
		})
	}
}
