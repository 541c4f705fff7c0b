package export

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/iwtcode/buildver/buildinfo"
)

// NewBuildInfoCollector возвращает метрики сборки:
// <namespace>_build_info{version,branch,sha,change_warning} = 1 и
// <namespace>_build_additional_commits.
func NewBuildInfoCollector(namespace string, info buildinfo.Info) prometheus.Collector {
	vec := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_info",
			Help:      "Version control metadata of the running build.",
		},
		[]string{"version", "branch", "sha", "change_warning"},
	)
	vec.WithLabelValues(
		info.Git.Version,
		info.Git.Branch,
		info.Git.Sha,
		strconv.FormatBool(info.Git.ChangeWarning),
	).Set(1)

	commits := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "build_additional_commits",
		Help:      "Commits on top of the last version tag.",
	})
	commits.Set(float64(info.Git.AdditionalCommits))

	return collectors{vec, commits}
}

type collectors []prometheus.Collector

func (c collectors) Describe(ch chan<- *prometheus.Desc) {
	for _, col := range c {
		col.Describe(ch)
	}
}

func (c collectors) Collect(ch chan<- prometheus.Metric) {
	for _, col := range c {
		col.Collect(ch)
	}
}

// Register регистрирует c. Если коллектор с теми же метриками уже зарегистрирован,
// он заменяется на c, чтобы значения соответствовали последней сборке.
func Register(reg prometheus.Registerer, c prometheus.Collector) error {
	err := reg.Register(c)
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return err
	}
	reg.Unregister(are.ExistingCollector)
	return reg.Register(c)
}
