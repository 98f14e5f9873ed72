package classpath

import (
	"io"
	"log/slog"
	"os"

	"github.com/meigma/classpath/cache/disk"
)

// plan is how one source becomes its cached artifact. The two
// implementations, skipPlan and instrumentPlan, are the only ones.
type plan interface {
	run(entry *disk.Entry) error
	String() string
}

var (
	_ plan = (*skipPlan)(nil)
	_ plan = (*instrumentPlan)(nil)
)

// selectPlan pre-scans archive sources and picks the plan. Directories are
// always instrumented.
func (t *Transformer) selectPlan(src string, kind Kind) (plan, error) {
	multiRelease := MultiReleaseUndetermined
	if kind == KindFile {
		res, err := inspectArchive(src)
		if err != nil {
			return nil, err
		}
		if res.signed {
			return &skipPlan{source: src, logger: t.log()}, nil
		}
		multiRelease = res.multiRelease
	}
	return &instrumentPlan{
		source:       src,
		kind:         kind,
		multiRelease: multiRelease,
		policy:       t.policy,
		logger:       t.log(),
	}, nil
}

// skipPlan copies a source archive verbatim.
type skipPlan struct {
	source string
	logger *slog.Logger
}

func (p *skipPlan) String() string { return "skip" }

func (p *skipPlan) run(entry *disk.Entry) error {
	p.logger.Debug("signed archive, skipping instrumentation", "source", p.source)
	return entry.WriteArtifact(func(dst *os.File) error {
		src, err := os.Open(p.source)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(dst, src)
		return err
	})
}
