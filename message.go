package buildver

import (
	"github.com/iwtcode/buildver/arlog"
	"github.com/iwtcode/buildver/buildinfo"
	"github.com/iwtcode/buildver/cstring"
)

const (
	branchSeparator = " Branch="
	changesTrue     = " Changes=TRUE"
	changesFalse    = " Changes=FALSE"
)

// FormatMessage собирает в buf строку "<tag><version> Branch=<branch> Changes=TRUE|FALSE".
// Если текст не помещается, он молча обрезается до buf.Cap()-1 байт.
func FormatMessage(buf *cstring.Buffer, tag string, git buildinfo.Git) string {
	buf.Copy(tag).
		Concat(git.Version).
		Concat(branchSeparator).
		Concat(git.Branch).
		Concat(changesSuffix(git))
	return buf.String()
}

// messageLength - длина сообщения без обрезки. Каждая часть копируется только до
// первого NUL, поэтому и считается так же.
func messageLength(tag string, git buildinfo.Git) int {
	n := 0
	for _, part := range []string{tag, git.Version, branchSeparator, git.Branch, changesSuffix(git)} {
		n += cstring.Len([]byte(part))
	}
	return n
}

func changesSuffix(git buildinfo.Git) string {
	if git.ChangeWarning {
		return changesTrue
	}
	return changesFalse
}

// EventIDFor возвращает предупреждение для сборки с незакоммиченными изменениями
// и информационное событие в остальных случаях.
func EventIDFor(git buildinfo.Git, facility, code uint16) arlog.EventID {
	if git.ChangeWarning {
		return arlog.MakeEventID(arlog.SeverityWarning, facility, code)
	}
	return arlog.MakeEventID(arlog.SeverityInfo, facility, code)
}
