package mysql

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	mysqldrv "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"hotel_inventory/internal/domain"
)

// MySQL error number for a unique key violation.
const errDupEntry = 1062

// Rooms per INSERT statement; keeps placeholders far below the server limit.
const roomBatchSize = 1000

// Store implements the write (unit of work), read and catalog ports.
type Store struct{ db *sqlx.DB }

func New(db *sql.DB) *Store { return &Store{db: sqlx.NewDb(db, "mysql")} }

// DB exposes the underlying handle for migrations and seeding.
func (s *Store) DB() *sqlx.DB { return s.db }

// querier is satisfied by both *sqlx.DB and *sqlx.Tx.
type querier interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error)
}

func (s *Store) Begin(ctx context.Context) (domain.UnitOfWork, error) {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	return &unit{tx: tx}, nil
}

type unit struct {
	tx   *sqlx.Tx
	done bool
}

func (u *unit) Hotels() domain.HotelRepository { return hotelRepo{q: u.tx} }
func (u *unit) Rooms() domain.RoomRepository   { return roomRepo{q: u.tx} }

func (u *unit) Commit(ctx context.Context) error {
	u.done = true
	return u.tx.Commit()
}

func (u *unit) Rollback(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.done = true
	if err := u.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------
// hotels
// -----------------------------------------------------------------------------

type hotelRepo struct{ q querier }

func (r hotelRepo) FindByID(ctx context.Context, id int64, forUpdate bool) (domain.Hotel, error) {
	q := findHotelSQL
	if forUpdate {
		q += forUpdateSuffix
	}
	var h domain.Hotel
	if err := r.q.GetContext(ctx, &h, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Hotel{}, domain.ErrNotFound
		}
		return domain.Hotel{}, err
	}
	return h, nil
}

func (r hotelRepo) FindConflict(ctx context.Context, nombre, nit string, excludeID int64) (string, error) {
	var rows []struct {
		Nombre string `db:"nombre"`
		NIT    string `db:"nit"`
	}
	if err := r.q.SelectContext(ctx, &rows, findConflictSQL, nombre, nit, excludeID); err != nil {
		return "", err
	}
	field := ""
	for _, row := range rows {
		if row.Nombre == nombre {
			return "nombre", nil
		}
		if row.NIT == nit {
			field = "nit"
		}
	}
	return field, nil
}

func (r hotelRepo) Create(ctx context.Context, h *domain.Hotel) error {
	res, err := r.q.NamedExecContext(ctx, insertHotelSQL, h)
	if err != nil {
		return mapDuplicate(err, h)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	h.ID = id
	return nil
}

// Update does not look at rows affected: MySQL reports 0 when nothing
// changed, and the caller already holds the row lock.
func (r hotelRepo) Update(ctx context.Context, h *domain.Hotel) error {
	if _, err := r.q.NamedExecContext(ctx, updateHotelSQL, h); err != nil {
		return mapDuplicate(err, h)
	}
	return nil
}

func (r hotelRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, deleteHotelSQL, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// mapDuplicate turns a unique key violation on hoteles into the domain error,
// naming the column from the index in the server message.
func mapDuplicate(err error, h *domain.Hotel) error {
	var me *mysqldrv.MySQLError
	if !errors.As(err, &me) || me.Number != errDupEntry {
		return err
	}
	if strings.Contains(me.Message, "uq_hoteles_nit") {
		return &domain.DuplicateHotelError{Field: "nit", Value: h.NIT}
	}
	return &domain.DuplicateHotelError{Field: "nombre", Value: h.Nombre}
}

// -----------------------------------------------------------------------------
// rooms
// -----------------------------------------------------------------------------

type roomRepo struct{ q querier }

func (r roomRepo) ListByHotel(ctx context.Context, hotelID int64) ([]domain.Room, error) {
	rooms := []domain.Room{}
	if err := r.q.SelectContext(ctx, &rooms, roomsByHotelSQL, hotelID); err != nil {
		return nil, err
	}
	return rooms, nil
}

func (r roomRepo) DeleteByHotel(ctx context.Context, hotelID int64) (int64, error) {
	res, err := r.q.ExecContext(ctx, deleteRoomsSQL, hotelID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r roomRepo) BulkInsert(ctx context.Context, rooms []domain.Room) error {
	for start := 0; start < len(rooms); start += roomBatchSize {
		end := min(start+roomBatchSize, len(rooms))
		if _, err := r.q.NamedExecContext(ctx, insertRoomsSQL, rooms[start:end]); err != nil {
			return err
		}
	}
	return nil
}

// -----------------------------------------------------------------------------
// read side
// -----------------------------------------------------------------------------

func (s *Store) readTx(ctx context.Context) (*sqlx.Tx, error) {
	return s.db.BeginTxx(ctx, &sql.TxOptions{ReadOnly: true})
}

func (s *Store) GetHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	tx, err := s.readTx(ctx)
	if err != nil {
		return domain.Hotel{}, err
	}
	defer func() { _ = tx.Rollback() }()

	h, err := hotelRepo{q: tx}.FindByID(ctx, id, false)
	if err != nil {
		return domain.Hotel{}, err
	}
	if h.Habitaciones, err = (roomRepo{q: tx}).ListByHotel(ctx, id); err != nil {
		return domain.Hotel{}, err
	}
	return h, nil
}

func (s *Store) ListHotels(ctx context.Context, q domain.PageQuery) ([]domain.Hotel, int, error) {
	tx, err := s.readTx(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var total int
	if err := tx.GetContext(ctx, &total, countHotelsSQL); err != nil {
		return nil, 0, err
	}
	hotels := []domain.Hotel{}
	if err := tx.SelectContext(ctx, &hotels, pageHotelsSQL, q.PerPage, q.Offset()); err != nil {
		return nil, 0, err
	}
	if len(hotels) == 0 {
		return hotels, total, nil
	}

	ids := make([]int64, len(hotels))
	for i, h := range hotels {
		ids[i] = h.ID
	}
	query, args, err := sqlx.In(roomsByHotelsSQL, ids)
	if err != nil {
		return nil, 0, err
	}
	var rooms []domain.Room
	if err := tx.SelectContext(ctx, &rooms, tx.Rebind(query), args...); err != nil {
		return nil, 0, err
	}
	byHotel := make(map[int64][]domain.Room, len(hotels))
	for _, rm := range rooms {
		byHotel[rm.HotelID] = append(byHotel[rm.HotelID], rm)
	}
	for i := range hotels {
		hotels[i].Habitaciones = byHotel[hotels[i].ID]
	}
	return hotels, total, nil
}

// -----------------------------------------------------------------------------
// catalog
// -----------------------------------------------------------------------------

func (s *Store) LoadCatalog(ctx context.Context) (domain.CatalogData, error) {
	var d domain.CatalogData
	if err := s.db.SelectContext(ctx, &d.RoomTypes, roomTypesSQL); err != nil {
		return domain.CatalogData{}, err
	}
	if err := s.db.SelectContext(ctx, &d.Accommodations, accommodationsSQL); err != nil {
		return domain.CatalogData{}, err
	}
	if err := s.db.SelectContext(ctx, &d.Edges, edgesSQL); err != nil {
		return domain.CatalogData{}, err
	}
	return d, nil
}

// SeedCatalog inserts the lookup tables, leaving rows that already exist.
func (s *Store) SeedCatalog(ctx context.Context, d domain.CatalogData) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	steps := []struct {
		sql  string
		rows any
		n    int
	}{
		{seedRoomTypesSQL, d.RoomTypes, len(d.RoomTypes)},
		{seedAccommodationsSQL, d.Accommodations, len(d.Accommodations)},
		{seedEdgesSQL, d.Edges, len(d.Edges)},
	}
	for _, st := range steps {
		if st.n == 0 {
			continue
		}
		if _, err := tx.NamedExecContext(ctx, st.sql, st.rows); err != nil {
			return err
		}
	}
	return tx.Commit()
}
