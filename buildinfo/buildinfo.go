// Package buildinfo содержит метаданные системы контроля версий, снятые при сборке.
package buildinfo

import (
	"fmt"
	"os"
	"runtime/debug"
	"strconv"
	"strings"
	"time"
)

// Переменные выставляются линкером:
//
//	go build -ldflags "-X github.com/iwtcode/buildver/buildinfo.Version=1.2.3 -X ...Branch=main"
var (
	Version string
	Branch  string
	Sha     string
	Dirty   string
	Commits string
)

const vcsTimeLayout = "2006-01-02T15:04:05Z"

// Git - состояние рабочей копии на момент сборки.
type Git struct {
	Version            string `json:"version"`
	Branch             string `json:"branch"`
	Sha                string `json:"sha,omitempty"`
	Describe           string `json:"describe,omitempty"`
	Date               string `json:"date,omitempty"`
	AdditionalCommits  uint32 `json:"additional_commits"`
	UncommittedChanges bool   `json:"uncommitted_changes"`
	// ChangeWarning выставляется, если сборка сделана с незакоммиченными изменениями.
	ChangeWarning bool `json:"change_warning"`
}

// Info - неизменяемая после Resolve запись метаданных сборки.
type Info struct {
	Git Git `json:"git"`
}

// IsZero сообщает, что метаданные не были получены ни из одного источника.
func (i Info) IsZero() bool {
	return i.Git == Git{}
}

// FromLinker собирает Info из переменных, заданных при линковке.
func FromLinker() (Info, bool) {
	if Version == "" && Sha == "" {
		return Info{}, false
	}
	dirty, _ := strconv.ParseBool(Dirty)
	commits, _ := strconv.ParseUint(Commits, 10, 32)
	return Info{Git: Git{
		Version:            Version,
		Branch:             Branch,
		Sha:                Sha,
		AdditionalCommits:  uint32(commits),
		UncommittedChanges: dirty,
		ChangeWarning:      dirty,
	}}, true
}

// FromDebug извлекает vcs.* настройки, которые go встраивает в бинарник.
// Ветку go не записывает, поэтому Branch остается пустым.
func FromDebug(bi *debug.BuildInfo) (Info, bool) {
	if bi == nil {
		return Info{}, false
	}
	var g Git
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			g.Sha = s.Value
		case "vcs.modified":
			g.UncommittedChanges = s.Value == "true"
		case "vcs.time":
			if t, err := time.Parse(vcsTimeLayout, s.Value); err == nil {
				g.Date = t.Format(time.DateOnly)
			}
		}
	}
	if g.Sha == "" {
		return Info{}, false
	}
	g.ChangeWarning = g.UncommittedChanges
	g.Version = bi.Main.Version
	if g.Version == "" || g.Version == "(devel)" {
		g.Version = shortSha(g.Sha)
	}
	return Info{Git: g}, true
}

// Resolve выбирает источник метаданных: файл path, если задан, затем переменные
// линкера, затем vcs-информация бинарника. Если ничего нет, возвращается пустой Info.
func Resolve(path string) (Info, error) {
	if path != "" {
		info, err := LoadFile(path)
		if err != nil {
			return Info{}, err
		}
		return info, nil
	}
	if info, ok := FromLinker(); ok {
		return info, nil
	}
	bi, _ := debug.ReadBuildInfo()
	if info, ok := FromDebug(bi); ok {
		return info, nil
	}
	return Info{}, nil
}

// LoadFile читает JSON-файл, созданный шагом сборки.
func LoadFile(path string) (Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Info{}, fmt.Errorf("read build info %s: %w", path, err)
	}
	info, err := Parse(data)
	if err != nil {
		return Info{}, fmt.Errorf("parse build info %s: %w", path, err)
	}
	return info, nil
}

func shortSha(sha string) string {
	sha = strings.TrimSpace(sha)
	if len(sha) > 12 {
		return sha[:12]
	}
	return sha
}
