// wisdomfit fits the wisdom-of-crowds desirability model over completed
// drafts and writes the scores back for the WISDOM auto-pick strategy and
// admin analytics.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/galadraft/galadraft/internal/dbconfig"
	"github.com/galadraft/galadraft/internal/wisdom"
)

func main() {
	iterations := flag.Int("iterations", wisdom.DefaultIterations, "solver iteration budget")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	ctx := context.Background()

	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create connection pool")
	}
	defer pool.Close()

	input, err := loadInput(ctx, pool)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load fit input")
	}
	log.Info().
		Int("nominations", len(input.CategoryByNomination)).
		Int("seasons", len(input.Seasons)).
		Int("iterations", *iterations).
		Msg("fitting wisdom scores")

	result := wisdom.Fit(wisdom.Config{Iterations: *iterations}, input)

	if err := writeScores(ctx, pool, result); err != nil {
		log.Fatal().Err(err).Msg("failed to write scores")
	}
	log.Info().Int("scores", len(result.Scores)).Msg("wisdom fit complete")
}

// loadInput reads the nomination pool and one observation per completed
// draft: its pick order plus the owning season's category weights.
func loadInput(ctx context.Context, pool *pgxpool.Pool) (wisdom.Input, error) {
	in := wisdom.Input{CategoryByNomination: make(map[uuid.UUID]uuid.UUID)}

	rows, err := pool.Query(ctx, `SELECT id, category_id FROM nominations`)
	if err != nil {
		return in, fmt.Errorf("failed to list nominations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var nomID, catID uuid.UUID
		if err := rows.Scan(&nomID, &catID); err != nil {
			return in, fmt.Errorf("failed to scan nomination: %w", err)
		}
		in.CategoryByNomination[nomID] = catID
	}
	if err := rows.Err(); err != nil {
		return in, err
	}

	draftRows, err := pool.Query(ctx,
		`SELECT id, season_id FROM drafts WHERE status = 'COMPLETED'`)
	if err != nil {
		return in, fmt.Errorf("failed to list completed drafts: %w", err)
	}
	defer draftRows.Close()

	type draftRef struct {
		id       uuid.UUID
		seasonID uuid.UUID
	}
	var drafts []draftRef
	for draftRows.Next() {
		var d draftRef
		if err := draftRows.Scan(&d.id, &d.seasonID); err != nil {
			return in, fmt.Errorf("failed to scan draft: %w", err)
		}
		drafts = append(drafts, d)
	}
	if err := draftRows.Err(); err != nil {
		return in, err
	}

	weightCache := make(map[uuid.UUID]map[uuid.UUID]float64)
	for _, d := range drafts {
		order, err := loadPickOrder(ctx, pool, d.id)
		if err != nil {
			return in, err
		}
		weights, ok := weightCache[d.seasonID]
		if !ok {
			weights, err = loadSeasonWeights(ctx, pool, d.seasonID)
			if err != nil {
				return in, err
			}
			weightCache[d.seasonID] = weights
		}
		in.Seasons = append(in.Seasons, wisdom.SeasonObservation{Order: order, Weights: weights})
	}
	return in, nil
}

func loadPickOrder(ctx context.Context, pool *pgxpool.Pool, draftID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := pool.Query(ctx,
		`SELECT nomination_id FROM draft_picks WHERE draft_id = $1 ORDER BY pick_number`, draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to list picks: %w", err)
	}
	defer rows.Close()

	var order []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan pick: %w", err)
		}
		order = append(order, id)
	}
	return order, rows.Err()
}

func loadSeasonWeights(ctx context.Context, pool *pgxpool.Pool, seasonID uuid.UUID) (map[uuid.UUID]float64, error) {
	rows, err := pool.Query(ctx,
		`SELECT category_id, weight FROM season_category_weights WHERE season_id = $1`, seasonID)
	if err != nil {
		return nil, fmt.Errorf("failed to list season weights: %w", err)
	}
	defer rows.Close()

	weights := make(map[uuid.UUID]float64)
	for rows.Next() {
		var catID uuid.UUID
		var w float64
		if err := rows.Scan(&catID, &w); err != nil {
			return nil, fmt.Errorf("failed to scan weight: %w", err)
		}
		weights[catID] = w
	}
	return weights, rows.Err()
}

func writeScores(ctx context.Context, pool *pgxpool.Pool, result wisdom.Result) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for nomID, score := range result.Scores {
		if _, err := tx.Exec(ctx,
			`INSERT INTO wisdom_scores (nomination_id, score, sample_size, fitted_at)
			 VALUES ($1, $2, $3, now())
			 ON CONFLICT (nomination_id) DO UPDATE SET
				score = EXCLUDED.score,
				sample_size = EXCLUDED.sample_size,
				fitted_at = EXCLUDED.fitted_at`,
			nomID, score, result.SampleSizes[nomID]); err != nil {
			return fmt.Errorf("failed to upsert score: %w", err)
		}
	}
	return tx.Commit(ctx)
}
