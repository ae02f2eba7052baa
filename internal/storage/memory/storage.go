package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/goldenknight/chessclub/internal/model"
	"github.com/goldenknight/chessclub/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// Transactions take a snapshot of the whole dataset and swap it in on
// commit, so a failed transaction leaves no trace.
type Storage struct {
	mu   sync.RWMutex
	data *storeData
}

type storeData struct {
	players      map[model.PlayerID]*model.Player
	games        map[model.GameID]*model.Game
	nextPlayerID model.PlayerID
	nextGameID   model.GameID
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		data: &storeData{
			players:      make(map[model.PlayerID]*model.Player),
			games:        make(map[model.GameID]*model.Game),
			nextPlayerID: 1,
			nextGameID:   1,
		},
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// WithTx runs fn against a snapshot of the data. Writes become visible only
// if fn returns nil.
func (s *Storage) WithTx(ctx context.Context, fn func(storage.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(&txStore{data: snapshot}); err != nil {
		return err
	}
	s.data = snapshot
	return nil
}

// Close is a no-op for the in-memory store
func (s *Storage) Close() error { return nil }

// Player operations

func (s *Storage) CreatePlayer(ctx context.Context, player *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.createPlayer(player)
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.getPlayer(id)
}

func (s *Storage) GetPlayerByName(ctx context.Context, name string) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.getPlayerByName(name)
}

func (s *Storage) ListPlayers(ctx context.Context) ([]*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.listPlayers()
}

func (s *Storage) UpdatePlayer(ctx context.Context, player *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.updatePlayer(player)
}

func (s *Storage) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.deletePlayer(id)
}

// Game operations

func (s *Storage) CreateGame(ctx context.Context, game *model.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.createGame(game)
}

func (s *Storage) GetGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.getGame(id)
}

func (s *Storage) UpdateGame(ctx context.Context, game *model.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.updateGame(game)
}

func (s *Storage) DeleteGame(ctx context.Context, id model.GameID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.deleteGame(id)
}

func (s *Storage) ListGames(ctx context.Context, filter model.GameFilter) ([]*model.GameRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.listGames(filter)
}

func (s *Storage) ListGamesForPlayer(ctx context.Context, id model.PlayerID) ([]*model.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.listGamesForPlayer(id)
}

// txStore exposes a snapshot as a storage.Store. The enclosing WithTx holds
// the storage lock for the duration, so no further locking is needed.
type txStore struct {
	data *storeData
}

var _ storage.Store = (*txStore)(nil)

func (t *txStore) CreatePlayer(ctx context.Context, player *model.Player) error {
	return t.data.createPlayer(player)
}

func (t *txStore) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	return t.data.getPlayer(id)
}

func (t *txStore) GetPlayerByName(ctx context.Context, name string) (*model.Player, error) {
	return t.data.getPlayerByName(name)
}

func (t *txStore) ListPlayers(ctx context.Context) ([]*model.Player, error) {
	return t.data.listPlayers()
}

func (t *txStore) UpdatePlayer(ctx context.Context, player *model.Player) error {
	return t.data.updatePlayer(player)
}

func (t *txStore) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	return t.data.deletePlayer(id)
}

func (t *txStore) CreateGame(ctx context.Context, game *model.Game) error {
	return t.data.createGame(game)
}

func (t *txStore) GetGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	return t.data.getGame(id)
}

func (t *txStore) UpdateGame(ctx context.Context, game *model.Game) error {
	return t.data.updateGame(game)
}

func (t *txStore) DeleteGame(ctx context.Context, id model.GameID) error {
	return t.data.deleteGame(id)
}

func (t *txStore) ListGames(ctx context.Context, filter model.GameFilter) ([]*model.GameRecord, error) {
	return t.data.listGames(filter)
}

func (t *txStore) ListGamesForPlayer(ctx context.Context, id model.PlayerID) ([]*model.Game, error) {
	return t.data.listGamesForPlayer(id)
}

// storeData operations (callers hold the appropriate lock)

func (d *storeData) clone() *storeData {
	players := make(map[model.PlayerID]*model.Player, len(d.players))
	for id, p := range d.players {
		cp := *p
		players[id] = &cp
	}
	games := make(map[model.GameID]*model.Game, len(d.games))
	for id, g := range d.games {
		cg := *g
		games[id] = &cg
	}
	return &storeData{
		players:      players,
		games:        games,
		nextPlayerID: d.nextPlayerID,
		nextGameID:   d.nextGameID,
	}
}

func (d *storeData) createPlayer(player *model.Player) error {
	for _, p := range d.players {
		if strings.EqualFold(p.Name, player.Name) {
			return model.ErrNameTaken
		}
	}
	player.ID = d.nextPlayerID
	d.nextPlayerID++
	cp := *player
	d.players[cp.ID] = &cp
	return nil
}

func (d *storeData) getPlayer(id model.PlayerID) (*model.Player, error) {
	p, ok := d.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	cp := *p
	return &cp, nil
}

func (d *storeData) getPlayerByName(name string) (*model.Player, error) {
	for _, p := range d.players {
		if p.Name == name {
			cp := *p
			return &cp, nil
		}
	}
	return nil, model.ErrPlayerNotFound
}

func (d *storeData) listPlayers() ([]*model.Player, error) {
	players := make([]*model.Player, 0, len(d.players))
	for _, p := range d.players {
		cp := *p
		players = append(players, &cp)
	}
	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })
	return players, nil
}

func (d *storeData) updatePlayer(player *model.Player) error {
	if _, ok := d.players[player.ID]; !ok {
		return model.ErrPlayerNotFound
	}
	for _, p := range d.players {
		if p.ID != player.ID && strings.EqualFold(p.Name, player.Name) {
			return model.ErrNameTaken
		}
	}
	cp := *player
	d.players[cp.ID] = &cp
	return nil
}

func (d *storeData) deletePlayer(id model.PlayerID) error {
	if _, ok := d.players[id]; !ok {
		return model.ErrPlayerNotFound
	}
	delete(d.players, id)
	// Mirror the relational cascade from games to players
	for gid, g := range d.games {
		if g.WhiteID == id || g.BlackID == id {
			delete(d.games, gid)
		}
	}
	return nil
}

func (d *storeData) createGame(game *model.Game) error {
	game.ID = d.nextGameID
	d.nextGameID++
	cg := *game
	d.games[cg.ID] = &cg
	return nil
}

func (d *storeData) getGame(id model.GameID) (*model.Game, error) {
	g, ok := d.games[id]
	if !ok {
		return nil, model.ErrGameNotFound
	}
	cg := *g
	return &cg, nil
}

func (d *storeData) updateGame(game *model.Game) error {
	if _, ok := d.games[game.ID]; !ok {
		return model.ErrGameNotFound
	}
	cg := *game
	d.games[cg.ID] = &cg
	return nil
}

func (d *storeData) deleteGame(id model.GameID) error {
	if _, ok := d.games[id]; !ok {
		return model.ErrGameNotFound
	}
	delete(d.games, id)
	return nil
}

func (d *storeData) listGames(filter model.GameFilter) ([]*model.GameRecord, error) {
	var records []*model.GameRecord
	for _, g := range d.games {
		if filter.Verified != nil && g.Verified != *filter.Verified {
			continue
		}
		if filter.PlayerID != nil && g.WhiteID != *filter.PlayerID && g.BlackID != *filter.PlayerID {
			continue
		}
		if filter.From != nil && g.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && g.Date.After(*filter.To) {
			continue
		}
		records = append(records, &model.GameRecord{
			Game:  *g,
			White: d.playerRef(g.WhiteID),
			Black: d.playerRef(g.BlackID),
		})
	}

	asc := filter.Order == model.OrderAsc
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.Date.Equal(b.Date) {
			if asc {
				return a.Date.Before(b.Date)
			}
			return a.Date.After(b.Date)
		}
		if asc {
			return a.ID < b.ID
		}
		return a.ID > b.ID
	})
	return records, nil
}

func (d *storeData) playerRef(id model.PlayerID) model.PlayerRef {
	p, ok := d.players[id]
	if !ok {
		return model.PlayerRef{ID: id}
	}
	return model.PlayerRef{ID: p.ID, Name: p.Name, Rating: p.CurrentRating}
}

func (d *storeData) listGamesForPlayer(id model.PlayerID) ([]*model.Game, error) {
	var games []*model.Game
	for _, g := range d.games {
		if g.WhiteID == id || g.BlackID == id {
			cg := *g
			games = append(games, &cg)
		}
	}
	sort.Slice(games, func(i, j int) bool { return games[i].ID < games[j].ID })
	return games, nil
}
