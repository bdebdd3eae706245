package catalogimport

import (
	"context"
	"io"
	"time"

	"sipndash/internal/model"

	"github.com/rs/zerolog/log"
)

// Importer runs the parse, normalize and execute stages for one upload.
type Importer struct {
	policy   Policy
	parser   *Parser
	executor *Executor
}

func NewImporter(categories CategoryStore, products ProductStore, history PriceHistoryStore, runTx TxRunner, p Policy) *Importer {
	p = p.withDefaults()
	return &Importer{
		policy:   p,
		parser:   NewParser(p),
		executor: NewExecutor(categories, products, history, runTx, p),
	}
}

// Import reads the file named filename from r into catalog. DecodeError, SchemaError
// and ErrUnsupportedFileType abort before any write; everything else is reported
// in the Outcome.
func (im *Importer) Import(ctx context.Context, catalog model.Catalog, filename string, r io.Reader) (*Outcome, error) {
	kind, err := im.policy.KindFor(filename)
	if err != nil {
		return nil, err
	}

	rows, err := im.parser.Parse(r, kind)
	if err != nil {
		log.Warn().Err(err).Str("catalog", catalog.String()).Str("file", filename).
			Msg("catalog import: rejected upload")
		return nil, err
	}

	started := time.Now()
	out := im.executor.Execute(ctx, catalog, rows)

	log.Info().
		Str("catalog", catalog.String()).
		Str("file", filename).
		Int("rows", len(rows)).
		Int("created", out.Created).
		Int("updated", out.Updated).
		Int("errors", out.ErrorCount).
		Dur("elapsed", time.Since(started)).
		Msg("catalog import finished")
	return out, nil
}
