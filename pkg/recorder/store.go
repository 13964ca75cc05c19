// Package recorder persists teleoperation sessions to SQLite: one row
// per received telemetry frame (sans image payload) and one per command
// sent to the robot, grouped by session.
package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Adam-Vandervorst/pithon/pkg/telemetry"
)

// Session identifies one robot connection.
type Session struct {
	ID         string
	StartedAt  time.Time
	RemoteAddr string
}

// FrameRecord is the persisted portion of a telemetry frame. The image
// payload is streamed, not stored; only its size is kept.
type FrameRecord struct {
	Seq        uint64
	ReceivedAt time.Time
	ImageBytes int
	Sample     telemetry.Sample
}

// CommandRecord is one message sent over the command link.
type CommandRecord struct {
	SentAt  time.Time
	Message string
}

// Store handles database operations.
type Store struct {
	dbPath string

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	closeOnce sync.Once
	closeErr  error
}

// NewStore creates a store backed by the SQLite file at dbPath. The
// database is opened lazily on first use.
func NewStore(dbPath string) *Store {
	return &Store{dbPath: dbPath}
}

func (s *Store) getDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL"))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening connection: %w", err)
			return
		}

		if _, err = db.Exec(schemaSQL); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

// BeginSession registers a new session and returns its id.
func (s *Store) BeginSession(ctx context.Context, remoteAddr string) (sessionID string, err error) {
	db, err := s.getDB()
	if err != nil {
		return "", fmt.Errorf("getting connection: %w", err)
	}

	sessionID = uuid.NewString()
	if _, err = db.ExecContext(ctx, insertSessionSQL, sessionID, remoteAddr); err != nil {
		return "", fmt.Errorf("inserting session: %w", err)
	}
	return sessionID, nil
}

// StoreFrame persists the metadata of one telemetry frame.
func (s *Store) StoreFrame(ctx context.Context, sessionID string, f telemetry.Frame) (err error) {
	db, err := s.getDB()
	if err != nil {
		return fmt.Errorf("getting connection: %w", err)
	}

	_, err = db.ExecContext(ctx, insertFrameSQL,
		sessionID,
		f.Seq,
		time.Now().UTC(),
		len(f.Image),
		f.Sample.AX, f.Sample.AY, f.Sample.AZ,
		f.Sample.GX, f.Sample.GY, f.Sample.GZ,
	)
	if err != nil {
		return fmt.Errorf("inserting frame: %w", err)
	}
	return nil
}

// StoreCommand persists one outbound command message.
func (s *Store) StoreCommand(ctx context.Context, sessionID, message string) (err error) {
	db, err := s.getDB()
	if err != nil {
		return fmt.Errorf("getting connection: %w", err)
	}

	if _, err = db.ExecContext(ctx, insertCommandSQL, sessionID, time.Now().UTC(), message); err != nil {
		return fmt.Errorf("inserting command: %w", err)
	}
	return nil
}

// Sessions lists all recorded sessions in start order.
func (s *Store) Sessions(ctx context.Context) (sessions []Session, err error) {
	db, err := s.getDB()
	if err != nil {
		return nil, fmt.Errorf("getting connection: %w", err)
	}

	rows, err := db.QueryContext(ctx, selectSessionsSQL)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var sess Session
		var addr sql.NullString
		if err = rows.Scan(&sess.ID, &sess.StartedAt, &addr); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sess.RemoteAddr = addr.String
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// Frames returns a session's frame records in sequence order.
func (s *Store) Frames(ctx context.Context, sessionID string) (frames []FrameRecord, err error) {
	db, err := s.getDB()
	if err != nil {
		return nil, fmt.Errorf("getting connection: %w", err)
	}

	rows, err := db.QueryContext(ctx, selectFramesSQL, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying frames: %w", err)
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var fr FrameRecord
		if err = rows.Scan(
			&fr.Seq, &fr.ReceivedAt, &fr.ImageBytes,
			&fr.Sample.AX, &fr.Sample.AY, &fr.Sample.AZ,
			&fr.Sample.GX, &fr.Sample.GY, &fr.Sample.GZ,
		); err != nil {
			return nil, fmt.Errorf("scanning frame: %w", err)
		}
		frames = append(frames, fr)
	}
	return frames, rows.Err()
}

// Commands returns a session's outbound messages in send order.
func (s *Store) Commands(ctx context.Context, sessionID string) (commands []CommandRecord, err error) {
	db, err := s.getDB()
	if err != nil {
		return nil, fmt.Errorf("getting connection: %w", err)
	}

	rows, err := db.QueryContext(ctx, selectCommandsSQL, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying commands: %w", err)
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var cr CommandRecord
		if err = rows.Scan(&cr.SentAt, &cr.Message); err != nil {
			return nil, fmt.Errorf("scanning command: %w", err)
		}
		commands = append(commands, cr)
	}
	return commands, rows.Err()
}

// Close flushes and closes the database.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		if s.writeDB != nil {
			s.closeErr = s.writeDB.Close()
			s.writeDB = nil
		}
	})
	return s.closeErr
}

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}
