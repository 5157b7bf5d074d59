package art2img

import (
	"database/sql"
	"fmt"
	"strconv"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	_ "github.com/mattn/go-sqlite3" // driver
	"github.com/raulcorreia7/art2img-sub001/art"
	"github.com/raulcorreia7/art2img-sub001/raster"
)

// Catalog is a SQLite index of exported tiles.
type Catalog struct {
	db *sql.DB
}

// TileRecord is one exported tile in the catalog.
type TileRecord struct {
	ID       uint32
	Width    int
	Height   int
	Picanm   uint32
	CRC      uint32
	Output   string
	Dominant string
}

// Animation decodes the record's picanm word.
func (r TileRecord) Animation() art.Animation {
	return art.ParseAnimation(r.Picanm)
}

// OpenCatalog opens or creates the catalog database in file.
func OpenCatalog(file string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, err
	}
	// Tiles are recorded from several workers; SQLite wants one writer
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS archive (id INTEGER PRIMARY KEY NOT NULL, path TEXT NOT NULL UNIQUE, version INTEGER NOT NULL, tile_start INTEGER NOT NULL, tile_end INTEGER NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS tile (archive_id INTEGER NOT NULL, tile_id INTEGER NOT NULL, width INTEGER NOT NULL, height INTEGER NOT NULL, picanm INTEGER NOT NULL, crc TEXT NOT NULL, output TEXT NOT NULL, dominant TEXT, PRIMARY KEY (archive_id, tile_id), FOREIGN KEY(archive_id) REFERENCES archive(id))"); err != nil {
		db.Close()
		return nil, err
	}

	return &Catalog{
		db: db,
	}, nil
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// AddArchive records an archive, updating its header if already present,
// and returns its row id.
func (c *Catalog) AddArchive(path string, h art.Header) (int64, error) {
	var id int64
	switch err := c.db.QueryRow("SELECT id FROM archive WHERE path = ?", path).Scan(&id); err {
	case sql.ErrNoRows:
		result, err := c.db.Exec("INSERT INTO archive (path, version, tile_start, tile_end) VALUES (?, ?, ?, ?)", path, h.Version, h.Start, h.End)
		if err != nil {
			return 0, err
		}
		return result.LastInsertId()
	case nil:
		if _, err := c.db.Exec("UPDATE archive SET version = ?, tile_start = ?, tile_end = ? WHERE id = ?", h.Version, h.Start, h.End, id); err != nil {
			return 0, err
		}
		return id, nil
	default:
		return 0, err
	}
}

// AddTile records or replaces a tile of the given archive.
func (c *Catalog) AddTile(archive int64, r TileRecord) error {
	var dominant sql.NullString
	if r.Dominant != "" {
		dominant.String = r.Dominant
		dominant.Valid = true
	}

	if _, err := c.db.Exec("INSERT OR REPLACE INTO tile (archive_id, tile_id, width, height, picanm, crc, output, dominant) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		archive, r.ID, r.Width, r.Height, r.Picanm, fmt.Sprintf("%08X", r.CRC), r.Output, dominant); err != nil {
		return err
	}
	return nil
}

// Tiles returns the tiles recorded for the archive at path, in tile order.
func (c *Catalog) Tiles(path string) ([]TileRecord, error) {
	rows, err := c.db.Query("SELECT t.tile_id, t.width, t.height, t.picanm, t.crc, t.output, t.dominant FROM tile AS t JOIN archive AS a ON t.archive_id = a.id WHERE a.path = ? ORDER BY t.tile_id", path)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []TileRecord
	for rows.Next() {
		var (
			r        TileRecord
			crc      string
			dominant sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Width, &r.Height, &r.Picanm, &crc, &r.Output, &dominant); err != nil {
			return nil, err
		}
		v, err := strconv.ParseUint(crc, 16, 32)
		if err != nil {
			return nil, err
		}
		r.CRC = uint32(v)
		r.Dominant = dominant.String
		records = append(records, r)
	}
	return records, rows.Err()
}

// dominantHex returns the most prominent color of m as #rrggbb, or "" if
// there isn't one.
func dominantHex(m *raster.Image) string {
	var visible bool
	for i := 3; i < len(m.Pix) && !visible; i += raster.BytesPerPixel {
		visible = m.Pix[i] != 0
	}
	if !visible {
		return ""
	}

	colors := dominantcolor.FindWeight(m.Image(), 1)
	if len(colors) == 0 {
		return ""
	}
	c, ok := colorful.MakeColor(colors[0].RGBA)
	if !ok {
		return ""
	}
	return c.Hex()
}
