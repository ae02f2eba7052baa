// Package postgres implements the storage interface on PostgreSQL via
// database/sql and lib/pq. Transactions run at serializable isolation so the
// ledger's read-compute-write cycles cannot interleave.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/goldenknight/chessclub/internal/model"
	"github.com/goldenknight/chessclub/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS players (
	id             BIGSERIAL PRIMARY KEY,
	name           TEXT NOT NULL,
	pin_hash       TEXT NOT NULL DEFAULT '',
	is_admin       BOOLEAN NOT NULL DEFAULT FALSE,
	initial_rating INTEGER NOT NULL,
	current_rating INTEGER NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS players_name_lower_idx ON players (lower(name));

CREATE TABLE IF NOT EXISTS games (
	id              BIGSERIAL PRIMARY KEY,
	white_player_id BIGINT NOT NULL REFERENCES players(id) ON DELETE CASCADE,
	black_player_id BIGINT NOT NULL REFERENCES players(id) ON DELETE CASCADE,
	result          TEXT NOT NULL,
	played_at       TIMESTAMPTZ NOT NULL,
	white_change    INTEGER NOT NULL DEFAULT 0,
	black_change    INTEGER NOT NULL DEFAULT 0,
	verified        BOOLEAN NOT NULL DEFAULT FALSE,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS games_played_at_idx ON games (played_at);
`

// maxTxAttempts bounds retries of serialization failures (SQLSTATE 40001)
const maxTxAttempts = 3

// Storage is a PostgreSQL-backed implementation of the storage interface
type Storage struct {
	db *sql.DB
	queries
}

var _ storage.Storage = (*Storage)(nil)

// New connects to the database at the given URL and ensures the schema exists
func New(ctx context.Context, url string) (*Storage, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}
	return &Storage{db: db, queries: queries{db: db}}, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

// WithTx runs fn inside a serializable transaction, retrying a bounded number
// of times if the database aborts it with a serialization failure.
func (s *Storage) WithTx(ctx context.Context, fn func(storage.Store) error) error {
	var err error
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err = s.runTx(ctx, fn)
		if !isSerializationFailure(err) {
			return err
		}
	}
	return err
}

func (s *Storage) runTx(ctx context.Context, fn func(storage.Store) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(&queries{db: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "40001"
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// dbtx is satisfied by both *sql.DB and *sql.Tx
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries implements storage.Store against either the pool or a transaction
type queries struct {
	db dbtx
}

var _ storage.Store = (*queries)(nil)

// Player operations

func (q *queries) CreatePlayer(ctx context.Context, player *model.Player) error {
	err := q.db.QueryRowContext(ctx,
		`INSERT INTO players (name, pin_hash, is_admin, initial_rating, current_rating, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		player.Name, player.PINHash, player.IsAdmin,
		player.InitialRating, player.CurrentRating, player.CreatedAt,
	).Scan(&player.ID)
	if isUniqueViolation(err) {
		return model.ErrNameTaken
	}
	if err != nil {
		return fmt.Errorf("inserting player: %w", err)
	}
	return nil
}

func (q *queries) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, name, pin_hash, is_admin, initial_rating, current_rating, created_at
		 FROM players WHERE id = $1`, id)
	return scanPlayer(row)
}

func (q *queries) GetPlayerByName(ctx context.Context, name string) (*model.Player, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, name, pin_hash, is_admin, initial_rating, current_rating, created_at
		 FROM players WHERE name = $1`, name)
	return scanPlayer(row)
}

func (q *queries) ListPlayers(ctx context.Context) ([]*model.Player, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, name, pin_hash, is_admin, initial_rating, current_rating, created_at
		 FROM players ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing players: %w", err)
	}
	defer rows.Close()

	var players []*model.Player
	for rows.Next() {
		var p model.Player
		if err := rows.Scan(&p.ID, &p.Name, &p.PINHash, &p.IsAdmin,
			&p.InitialRating, &p.CurrentRating, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning player: %w", err)
		}
		players = append(players, &p)
	}
	return players, rows.Err()
}

func (q *queries) UpdatePlayer(ctx context.Context, player *model.Player) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE players
		 SET name = $2, pin_hash = $3, is_admin = $4, current_rating = $5
		 WHERE id = $1`,
		player.ID, player.Name, player.PINHash, player.IsAdmin, player.CurrentRating)
	if isUniqueViolation(err) {
		return model.ErrNameTaken
	}
	if err != nil {
		return fmt.Errorf("updating player: %w", err)
	}
	return requireAffected(res, model.ErrPlayerNotFound)
}

func (q *queries) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM players WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting player: %w", err)
	}
	return requireAffected(res, model.ErrPlayerNotFound)
}

// Game operations

func (q *queries) CreateGame(ctx context.Context, game *model.Game) error {
	err := q.db.QueryRowContext(ctx,
		`INSERT INTO games (white_player_id, black_player_id, result, played_at,
		                    white_change, black_change, verified, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		game.WhiteID, game.BlackID, game.Result, game.Date,
		game.WhiteChange, game.BlackChange, game.Verified, game.CreatedAt,
	).Scan(&game.ID)
	if err != nil {
		return fmt.Errorf("inserting game: %w", err)
	}
	return nil
}

func (q *queries) GetGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, white_player_id, black_player_id, result, played_at,
		        white_change, black_change, verified, created_at
		 FROM games WHERE id = $1`, id)

	var g model.Game
	err := row.Scan(&g.ID, &g.WhiteID, &g.BlackID, &g.Result, &g.Date,
		&g.WhiteChange, &g.BlackChange, &g.Verified, &g.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching game: %w", err)
	}
	return &g, nil
}

func (q *queries) UpdateGame(ctx context.Context, game *model.Game) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE games
		 SET result = $2, played_at = $3, white_change = $4, black_change = $5, verified = $6
		 WHERE id = $1`,
		game.ID, game.Result, game.Date, game.WhiteChange, game.BlackChange, game.Verified)
	if err != nil {
		return fmt.Errorf("updating game: %w", err)
	}
	return requireAffected(res, model.ErrGameNotFound)
}

func (q *queries) DeleteGame(ctx context.Context, id model.GameID) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM games WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting game: %w", err)
	}
	return requireAffected(res, model.ErrGameNotFound)
}

func (q *queries) ListGames(ctx context.Context, filter model.GameFilter) ([]*model.GameRecord, error) {
	query := `SELECT g.id, g.white_player_id, g.black_player_id, g.result, g.played_at,
	                 g.white_change, g.black_change, g.verified, g.created_at,
	                 w.name, w.current_rating, b.name, b.current_rating
	          FROM games g
	          JOIN players w ON w.id = g.white_player_id
	          JOIN players b ON b.id = g.black_player_id`

	var (
		conds []string
		args  []any
	)
	addCond := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.Verified != nil {
		addCond("g.verified = $%d", *filter.Verified)
	}
	if filter.PlayerID != nil {
		args = append(args, *filter.PlayerID)
		conds = append(conds, fmt.Sprintf("(g.white_player_id = $%d OR g.black_player_id = $%d)", len(args), len(args)))
	}
	if filter.From != nil {
		addCond("g.played_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		addCond("g.played_at <= $%d", *filter.To)
	}
	for i, c := range conds {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	if filter.Order == model.OrderAsc {
		query += " ORDER BY g.played_at ASC, g.id ASC"
	} else {
		query += " ORDER BY g.played_at DESC, g.id DESC"
	}

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing games: %w", err)
	}
	defer rows.Close()

	var records []*model.GameRecord
	for rows.Next() {
		var r model.GameRecord
		if err := rows.Scan(&r.ID, &r.WhiteID, &r.BlackID, &r.Result, &r.Date,
			&r.WhiteChange, &r.BlackChange, &r.Verified, &r.CreatedAt,
			&r.White.Name, &r.White.Rating, &r.Black.Name, &r.Black.Rating); err != nil {
			return nil, fmt.Errorf("scanning game record: %w", err)
		}
		r.White.ID = r.WhiteID
		r.Black.ID = r.BlackID
		records = append(records, &r)
	}
	return records, rows.Err()
}

func (q *queries) ListGamesForPlayer(ctx context.Context, id model.PlayerID) ([]*model.Game, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, white_player_id, black_player_id, result, played_at,
		        white_change, black_change, verified, created_at
		 FROM games
		 WHERE white_player_id = $1 OR black_player_id = $1
		 ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("listing games for player: %w", err)
	}
	defer rows.Close()

	var games []*model.Game
	for rows.Next() {
		var g model.Game
		if err := rows.Scan(&g.ID, &g.WhiteID, &g.BlackID, &g.Result, &g.Date,
			&g.WhiteChange, &g.BlackChange, &g.Verified, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning game: %w", err)
		}
		games = append(games, &g)
	}
	return games, rows.Err()
}

func scanPlayer(row *sql.Row) (*model.Player, error) {
	var p model.Player
	err := row.Scan(&p.ID, &p.Name, &p.PINHash, &p.IsAdmin,
		&p.InitialRating, &p.CurrentRating, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching player: %w", err)
	}
	return &p, nil
}

func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
