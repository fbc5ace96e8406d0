package mysql

// -----------------------------------------------------------------------------
// HOTELS
// -----------------------------------------------------------------------------

const hotelColumns = `id, nombre, direccion, ciudad, nit, numero_habitaciones, created_at, updated_at`

const findHotelSQL = `SELECT ` + hotelColumns + ` FROM hoteles WHERE id = ?`

// Appended to findHotelSQL when the caller intends to rewrite the aggregate.
const forUpdateSuffix = ` FOR UPDATE`

const findConflictSQL = `
SELECT nombre, nit
FROM hoteles
WHERE (nombre = ? OR nit = ?) AND id <> ?
`

const insertHotelSQL = `
INSERT INTO hoteles
  (nombre, direccion, ciudad, nit, numero_habitaciones, created_at, updated_at)
VALUES
  (:nombre, :direccion, :ciudad, :nit, :numero_habitaciones, :created_at, :updated_at)
`

const updateHotelSQL = `
UPDATE hoteles SET
  nombre              = :nombre,
  direccion           = :direccion,
  ciudad              = :ciudad,
  nit                 = :nit,
  numero_habitaciones = :numero_habitaciones,
  updated_at          = :updated_at
WHERE id = :id
`

const deleteHotelSQL = `DELETE FROM hoteles WHERE id = ?`

const countHotelsSQL = `SELECT COUNT(*) FROM hoteles`

const pageHotelsSQL = `SELECT ` + hotelColumns + ` FROM hoteles ORDER BY id LIMIT ? OFFSET ?`

// -----------------------------------------------------------------------------
// ROOMS
// -----------------------------------------------------------------------------

// Bulk insert: sqlx expands the VALUES group once per room.
const insertRoomsSQL = `
INSERT INTO habitaciones
  (hotel_id, tipo_habitacion_codigo, tipo_acomodacion_codigo, info_adicional, created_at, updated_at)
VALUES
  (:hotel_id, :tipo_habitacion_codigo, :tipo_acomodacion_codigo, :info_adicional, :created_at, :updated_at)
`

const deleteRoomsSQL = `DELETE FROM habitaciones WHERE hotel_id = ?`

// Rooms joined with both lookup tables so descriptions come back with the row.
const selectRoomsSQL = `
SELECT
  h.id,
  h.hotel_id,
  h.tipo_habitacion_codigo,
  h.tipo_acomodacion_codigo,
  t.descripcion AS tipo_habitacion_descripcion,
  a.descripcion AS tipo_acomodacion_descripcion,
  h.info_adicional,
  h.created_at,
  h.updated_at
FROM habitaciones h
JOIN tipos_habitacion t ON t.codigo = h.tipo_habitacion_codigo
JOIN acomodaciones   a ON a.codigo = h.tipo_acomodacion_codigo
`

const roomsByHotelSQL = selectRoomsSQL + `WHERE h.hotel_id = ? ORDER BY h.id`

// Expanded with sqlx.In for a page of hotels.
const roomsByHotelsSQL = selectRoomsSQL + `WHERE h.hotel_id IN (?) ORDER BY h.hotel_id, h.id`

// -----------------------------------------------------------------------------
// CATALOG
// -----------------------------------------------------------------------------

const roomTypesSQL = `SELECT codigo, descripcion FROM tipos_habitacion ORDER BY codigo`

const accommodationsSQL = `SELECT codigo, descripcion FROM acomodaciones ORDER BY codigo`

const edgesSQL = `
SELECT tipo_habitacion_codigo, tipo_acomodacion_codigo
FROM tipo_habitacion_acomodacion
ORDER BY tipo_habitacion_codigo, tipo_acomodacion_codigo
`

// Seeding is idempotent: existing codes keep their description.
const seedRoomTypesSQL = `INSERT IGNORE INTO tipos_habitacion (codigo, descripcion) VALUES (:codigo, :descripcion)`

const seedAccommodationsSQL = `INSERT IGNORE INTO acomodaciones (codigo, descripcion) VALUES (:codigo, :descripcion)`

const seedEdgesSQL = `
INSERT IGNORE INTO tipo_habitacion_acomodacion (tipo_habitacion_codigo, tipo_acomodacion_codigo)
VALUES (:tipo_habitacion_codigo, :tipo_acomodacion_codigo)
`

// -----------------------------------------------------------------------------
// MIGRATIONS
// -----------------------------------------------------------------------------

const createMigrationsTableSQL = `
CREATE TABLE IF NOT EXISTS schema_migrations (
  version    VARCHAR(255) NOT NULL PRIMARY KEY,
  applied_at TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP
)
`

const appliedMigrationsSQL = `SELECT version FROM schema_migrations`

const recordMigrationSQL = `INSERT INTO schema_migrations (version) VALUES (?)`
