package buildver

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iwtcode/buildver/arlog"
	"github.com/iwtcode/buildver/buildinfo"
)

func testConfig() *Config {
	return &Config{
		LogLevel:     "off",
		LogbookName:  arlog.UserLogbook,
		ObjectID:     "BuildVersion",
		MessageTag:   "BuildVersion=",
		MessageSize:  121,
		Facility:     10,
		Code:         100,
		PollInterval: 0,
		Latency:      2,
	}
}

func setupTest(t *testing.T, cfg *Config, opts ...arlog.MemoryOption) (*Client, *arlog.MemoryRuntime) {
	t.Helper()
	rt := arlog.NewMemoryRuntime(append([]arlog.MemoryOption{arlog.WithLatency(cfg.Latency)}, opts...)...)
	c, err := New(cfg, rt)
	require.NoError(t, err, "Не удалось создать клиента")
	require.NotNil(t, c)
	return c, rt
}

func TestInitWritesCleanBuild(t *testing.T) {
	c, rt := setupTest(t, testConfig())
	info := buildinfo.Info{Git: buildinfo.Git{Version: "1.2.3", Branch: "main"}}

	report, err := c.Init(context.Background(), info)
	require.NoError(t, err)

	assert.Equal(t, StageDone.String(), report.Stage)
	assert.True(t, report.Written())
	assert.False(t, report.Truncated)
	assert.Empty(t, report.IdentError)
	assert.Equal(t, "info", report.Entry.Severity)
	assert.Equal(t, "BuildVersion=1.2.3 Branch=main Changes=FALSE", report.Entry.Message)

	records := rt.Entries(arlog.UserLogbook)
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, report.Entry.Message, rec.Text())
	assert.Equal(t, arlog.MakeEventID(arlog.SeverityInfo, 10, 100), rec.EventID)
	assert.Equal(t, "BuildVersion", rec.ObjectID)
	assert.Equal(t, arlog.AddFormatText, rec.Format)
	assert.Len(t, rec.Data, len(report.Entry.Message)+1, "размер включает терминатор")

	assert.Equal(t, 2, rt.Stats().Releases, "оба контекста вызовов освобождены")
}

func TestInitDirtyBuildTruncated(t *testing.T) {
	c, rt := setupTest(t, testConfig())
	info := buildinfo.Info{Git: buildinfo.Git{
		Version:       "1.2.3-dirty",
		Branch:        "feature/x" + strings.Repeat("-with-a-very-long-description", 5),
		ChangeWarning: true,
	}}

	report, err := c.Init(context.Background(), info)
	require.NoError(t, err)

	assert.True(t, report.Truncated)
	assert.Equal(t, "warning", report.Entry.Severity)
	assert.Len(t, report.Entry.Message, 120)
	assert.Equal(t, 121, report.Entry.Size)

	records := rt.Entries(arlog.UserLogbook)
	require.Len(t, records, 1)
	assert.Len(t, records[0].Data, 121)
	assert.Equal(t, arlog.SeverityWarning, records[0].EventID.Severity())
}

func TestInitIdentErrorStillWrites(t *testing.T) {
	cfg := testConfig()
	cfg.LogbookName = "$unknown"
	cfg.Latency = 0
	c, rt := setupTest(t, cfg)

	report, err := c.Init(context.Background(), buildinfo.Info{Git: buildinfo.Git{Version: "1.0", Branch: "main"}})
	require.NoError(t, err)

	assert.Equal(t, StageDone.String(), report.Stage)
	assert.NotEmpty(t, report.IdentError)
	assert.NotEmpty(t, report.WriteError, "запись с нулевым идентификатором отклоняется")
	assert.Zero(t, report.Entry.Ident)
	assert.False(t, report.Written())
	assert.Equal(t, "BuildVersion=1.0 Branch=main Changes=FALSE", report.Entry.Message)

	stats := rt.Stats()
	assert.Equal(t, 2, stats.WriteCalls, "попытка записи и освобождение")
	assert.Equal(t, 2, stats.Releases)
	assert.Empty(t, rt.Entries(arlog.UserLogbook))
}

func TestInitWriteErrorTolerated(t *testing.T) {
	c, rt := setupTest(t, testConfig(), arlog.WithLogbook(arlog.UserLogbook, 1))
	info := buildinfo.Info{Git: buildinfo.Git{Version: "1.0", Branch: "main"}}

	first, err := c.Init(context.Background(), info)
	require.NoError(t, err)
	require.True(t, first.Written())

	second, err := c.Init(context.Background(), info)
	require.NoError(t, err)
	assert.Contains(t, second.WriteError, "logbook full")
	assert.Equal(t, StageDone.String(), second.Stage)
	assert.Len(t, rt.Entries(arlog.UserLogbook), 1)
}

func TestInitPublishesBuildInfo(t *testing.T) {
	c, _ := setupTest(t, testConfig())
	info := buildinfo.Info{Git: buildinfo.Git{Version: "1.2.3", Branch: "main", AdditionalCommits: 3}}

	report, err := c.Init(context.Background(), info)
	require.NoError(t, err)
	assert.Equal(t, []string{ExportName}, report.Exported)

	v, ok := c.Registry().Lookup(ExportName)
	require.True(t, ok)
	assert.Equal(t, info, v)

	families, err := c.Metrics().Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, mf := range families {
		names = append(names, mf.GetName())
	}
	assert.ElementsMatch(t, []string{"buildver_build_info", "buildver_build_additional_commits"}, names)
}

// blockedRuntime никогда не завершает запросы.
type blockedRuntime struct{}

func (blockedRuntime) GetIdent(fb *arlog.GetIdent) { fb.Busy = fb.Execute }
func (blockedRuntime) Write(fb *arlog.Write)       { fb.Busy = fb.Execute }

func TestInitContextCancel(t *testing.T) {
	cfg := testConfig()
	cfg.PollInterval = time.Millisecond
	c, err := New(cfg, blockedRuntime{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	report, err := c.Init(ctx, buildinfo.Info{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StageRequestIdent.String(), report.Stage)
}

func TestNewRejectsZeroMessageSize(t *testing.T) {
	cfg := testConfig()
	cfg.MessageSize = 0
	_, err := New(cfg, nil)
	assert.Error(t, err)
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "IDLE", StageIdle.String())
	assert.Equal(t, "RELEASE", StageRelease.String())
	assert.Equal(t, "STAGE(42)", Stage(42).String())
}

func TestNewWritesLogFile(t *testing.T) {
	cfg := testConfig()
	cfg.LogLevel = "debug"
	cfg.LogsDir = filepath.Join(t.TempDir(), "logs")

	c, _ := setupTest(t, cfg)
	defer c.Close()

	_, err := c.Init(context.Background(), buildinfo.Info{Git: buildinfo.Git{Version: "1.0", Branch: "main"}})
	require.NoError(t, err)

	files, err := os.ReadDir(cfg.LogsDir)
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(filepath.Join(cfg.LogsDir, files[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Стартовая запись версии сборки завершена")
	assert.NotContains(t, string(data), "\x1b[", "в файле лога нет управляющих последовательностей цвета")
}

// callLog записывает порядок вызовов поверх MemoryRuntime.
type callLog struct {
	*arlog.MemoryRuntime
	calls []string
}

func (l *callLog) GetIdent(fb *arlog.GetIdent) {
	if fb.Execute {
		l.calls = append(l.calls, "ident")
	} else {
		l.calls = append(l.calls, "release ident")
	}
	l.MemoryRuntime.GetIdent(fb)
}

func (l *callLog) Write(fb *arlog.Write) {
	if fb.Execute {
		l.calls = append(l.calls, "write")
	} else {
		l.calls = append(l.calls, "release write")
	}
	l.MemoryRuntime.Write(fb)
}

func TestInitReleasesAfterWrite(t *testing.T) {
	cfg := testConfig()
	cfg.Latency = 0
	rt := &callLog{MemoryRuntime: arlog.NewMemoryRuntime()}
	c, err := New(cfg, rt)
	require.NoError(t, err)

	report, err := c.Init(context.Background(), buildinfo.Info{Git: buildinfo.Git{Version: "1.0", Branch: "main"}})
	require.NoError(t, err)
	require.True(t, report.Written())

	assert.Equal(t, []string{"ident", "write", "release write", "release ident"}, rt.calls,
		"контекст GetIdent занят до стадии RELEASE")
	assert.Equal(t, 2, rt.Stats().Releases)
}

func TestInitTruncatedIgnoresTextAfterNUL(t *testing.T) {
	c, _ := setupTest(t, testConfig())

	report, err := c.Init(context.Background(), buildinfo.Info{Git: buildinfo.Git{Version: "1.0\x00" + strings.Repeat("x", 200), Branch: "main"}})
	require.NoError(t, err)
	assert.False(t, report.Truncated)
	assert.Equal(t, "BuildVersion=1.0 Branch=main Changes=FALSE", report.Entry.Message)
}

func TestInitRepublishesBuildInfo(t *testing.T) {
	c, _ := setupTest(t, testConfig())

	_, err := c.Init(context.Background(), buildinfo.Info{Git: buildinfo.Git{Version: "1.0", Branch: "main", AdditionalCommits: 1}})
	require.NoError(t, err)
	_, err = c.Init(context.Background(), buildinfo.Info{Git: buildinfo.Git{Version: "2.0", Branch: "main", AdditionalCommits: 7}})
	require.NoError(t, err)

	families, err := c.Metrics().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		require.Len(t, mf.GetMetric(), 1, mf.GetName())
		m := mf.GetMetric()[0]
		switch mf.GetName() {
		case "buildver_build_info":
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "version" {
					assert.Equal(t, "2.0", lp.GetValue())
				}
			}
		case "buildver_build_additional_commits":
			assert.Equal(t, float64(7), m.GetGauge().GetValue())
		}
	}
}
