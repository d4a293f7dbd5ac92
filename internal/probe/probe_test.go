package probe

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/CC-Digital-Innovation/AD-Database-PRTG-Sensor/internal/classify"
	"github.com/CC-Digital-Innovation/AD-Database-PRTG-Sensor/internal/connector"
)

// fakeSession replays canned responses and counts lifecycle calls.
type fakeSession struct {
	responses []string
	errs      []error
	calls     int
	closes    int
}

func (f *fakeSession) Run(_ context.Context, _ string) (string, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return "", errors.New("unexpected extra call")
}

func (f *fakeSession) Close() error {
	f.closes++
	return nil
}

func testProber(open func(ctx context.Context, cfg connector.Config) (session, error)) *Prober {
	return &Prober{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		open:   open,
	}
}

func validInput(computerName string) Input {
	return Input{
		ComputerName: computerName,
		Username:     "administrator",
		Password:     "hunter2",
	}
}

const remoteBundle = `{"DatabasePath":"E:\\Windows\\NTDS\\ntds.dit","DatabaseSizeBytes":15728640,"DriveTotalBytes":100000000000,"DriveFreeBytes":15000000000}`

func TestRunRemoteExecutionSuccess(t *testing.T) {
	sess := &fakeSession{responses: []string{remoteBundle}}
	var gotCfg connector.Config
	p := testProber(func(_ context.Context, cfg connector.Config) (session, error) {
		gotCfg = cfg
		return sess, nil
	})

	out := p.Run(context.Background(), validInput("dc01.domain.local"))

	if out.ExitCode != 0 {
		t.Fatalf("ExitCode = %d, want 0 (report: %+v)", out.ExitCode, out.Report)
	}
	if len(out.Report.PRTG.Results) != 5 {
		t.Errorf("got %d channels, want 5", len(out.Report.PRTG.Results))
	}
	if gotCfg.Mode != connector.RemoteExecution {
		t.Errorf("mode = %v, want RemoteExecution for a hostname", gotCfg.Mode)
	}
	if gotCfg.Credential.Username != `WORKGROUP\administrator` {
		t.Errorf("username = %q, want realm-qualified", gotCfg.Credential.Username)
	}
	if gotCfg.Timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want default %v", gotCfg.Timeout, DefaultTimeout)
	}
	if sess.calls != 1 {
		t.Errorf("remote execution made %d calls, want 1", sess.calls)
	}
	if sess.closes != 1 {
		t.Errorf("session closed %d times, want exactly 1", sess.closes)
	}
}

func TestRunDirectManagementSuccess(t *testing.T) {
	sess := &fakeSession{responses: []string{
		`E:\Windows\NTDS\ntds.dit`,
		"15728640",
		`{"DeviceID":"E:","Size":100000000000,"FreeSpace":15000000000}`,
	}}
	var gotCfg connector.Config
	p := testProber(func(_ context.Context, cfg connector.Config) (session, error) {
		gotCfg = cfg
		return sess, nil
	})

	out := p.Run(context.Background(), validInput("10.0.0.5"))

	if out.ExitCode != 0 {
		t.Fatalf("ExitCode = %d, want 0 (report: %+v)", out.ExitCode, out.Report)
	}
	if gotCfg.Mode != connector.DirectManagement {
		t.Errorf("mode = %v, want DirectManagement for an IP literal", gotCfg.Mode)
	}
	if sess.calls != 3 {
		t.Errorf("direct management made %d calls, want 3", sess.calls)
	}
	if sess.closes != 1 {
		t.Errorf("session closed %d times, want exactly 1", sess.closes)
	}
}

func TestRunConnectFailure(t *testing.T) {
	p := testProber(func(_ context.Context, _ connector.Config) (session, error) {
		return nil, errors.New("unable to connect to the remote server")
	})

	out := p.Run(context.Background(), validInput("dc01"))

	if out.ExitCode != classify.CodeUnreachable {
		t.Errorf("ExitCode = %d, want %d", out.ExitCode, classify.CodeUnreachable)
	}
	if out.Report.PRTG.Error != classify.CodeUnreachable {
		t.Errorf("report error = %d, want %d", out.Report.PRTG.Error, classify.CodeUnreachable)
	}
}

func TestRunCollectionFailureClosesSession(t *testing.T) {
	sess := &fakeSession{errs: []error{errors.New("Access is denied.")}}
	p := testProber(func(_ context.Context, _ connector.Config) (session, error) {
		return sess, nil
	})

	out := p.Run(context.Background(), validInput("dc01"))

	if out.ExitCode != classify.CodeAccessDenied {
		t.Errorf("ExitCode = %d, want %d", out.ExitCode, classify.CodeAccessDenied)
	}
	if sess.closes != 1 {
		t.Errorf("session closed %d times, want exactly 1", sess.closes)
	}
}

func TestRunZeroDriveTotalIsFailure(t *testing.T) {
	sess := &fakeSession{responses: []string{
		`{"DatabasePath":"C:\\Windows\\NTDS\\ntds.dit","DatabaseSizeBytes":1048576,"DriveTotalBytes":0,"DriveFreeBytes":0}`,
	}}
	p := testProber(func(_ context.Context, _ connector.Config) (session, error) {
		return sess, nil
	})

	out := p.Run(context.Background(), validInput("dc01"))

	if out.ExitCode == 0 {
		t.Fatal("zero drive total must produce a failure report")
	}
	if len(out.Report.PRTG.Results) != 0 {
		t.Error("failure report must not carry channels")
	}
}

func TestRunInvalidInput(t *testing.T) {
	opened := false
	p := testProber(func(_ context.Context, _ connector.Config) (session, error) {
		opened = true
		return nil, nil
	})

	out := p.Run(context.Background(), Input{ComputerName: "dc01", Username: "admin"})

	if out.ExitCode != classify.CodeGeneral {
		t.Errorf("ExitCode = %d, want %d", out.ExitCode, classify.CodeGeneral)
	}
	if opened {
		t.Error("no session must be opened for invalid input")
	}
}

func TestRunRecoversPanic(t *testing.T) {
	p := testProber(func(_ context.Context, _ connector.Config) (session, error) {
		panic("boom")
	})

	out := p.Run(context.Background(), validInput("dc01"))

	if out.ExitCode != classify.CodeGeneral {
		t.Errorf("ExitCode = %d, want %d", out.ExitCode, classify.CodeGeneral)
	}
	if out.Report.PRTG.Text == "" {
		t.Error("panic must still yield a well-formed failure report")
	}
}
