package buildinfo

import (
	"errors"
	"strconv"
	"strings"

	"github.com/valyala/fastjson"
)

var errNotObject = errors.New("build info must be a JSON object")

// Parse разбирает JSON шага сборки. Поля читаются из объекта "git",
// а при его отсутствии - из корня:
//
//	{"git": {"version": "1.2.3", "branch": "main", "sha": "...", "describe": "1.2.3-4-gabcdef0",
//	         "additionalCommits": 4, "uncommittedChanges": true, "changeWarning": true}}
//
// Составные ключи принимаются и в snake_case (additional_commits и т.д.).
func Parse(data []byte) (Info, error) {
	var p fastjson.Parser
	root, err := p.ParseBytes(data)
	if err != nil {
		return Info{}, err
	}
	if root.Type() != fastjson.TypeObject {
		return Info{}, errNotObject
	}

	v := root
	if g := root.Get("git"); g != nil {
		if g.Type() != fastjson.TypeObject {
			return Info{}, errNotObject
		}
		v = g
	}

	git := Git{
		Version:            string(v.GetStringBytes("version")),
		Branch:             string(v.GetStringBytes("branch")),
		Sha:                string(v.GetStringBytes("sha")),
		Describe:           string(v.GetStringBytes("describe")),
		Date:               string(v.GetStringBytes("date")),
		AdditionalCommits:  uint32(field(v, "additionalCommits", "additional_commits").GetUint()),
		UncommittedChanges: field(v, "uncommittedChanges", "uncommitted_changes").GetBool(),
	}
	if cw := field(v, "changeWarning", "change_warning"); cw != nil {
		git.ChangeWarning = cw.GetBool()
	} else {
		git.ChangeWarning = git.UncommittedChanges
	}
	if field(v, "additionalCommits", "additional_commits") == nil {
		git.AdditionalCommits = commitsFromDescribe(git.Describe)
	}
	return Info{Git: git}, nil
}

// field возвращает значение первого найденного ключа из keys или nil.
func field(v *fastjson.Value, keys ...string) *fastjson.Value {
	for _, k := range keys {
		if f := v.Get(k); f != nil {
			return f
		}
	}
	return nil
}

// commitsFromDescribe достает число коммитов после тега из вывода git describe
// вида <tag>-<n>-g<sha>.
func commitsFromDescribe(describe string) uint32 {
	parts := strings.Split(strings.TrimSuffix(describe, "-dirty"), "-")
	if len(parts) < 3 || !strings.HasPrefix(parts[len(parts)-1], "g") {
		return 0
	}
	n, err := strconv.ParseUint(parts[len(parts)-2], 10, 32)
	if err != nil {
		return 0
	}
	return uint32(n)
}
