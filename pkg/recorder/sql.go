package recorder

import (
	_ "embed"
)

const (
	insertSessionSQL = `
INSERT INTO sessions (id, remote_addr)
VALUES (?, ?)`

	insertFrameSQL = `
INSERT INTO frames (session_id,
                    seq,
                    received_at,
                    image_bytes,
                    ax, ay, az,
                    gx, gy, gz)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	insertCommandSQL = `
INSERT INTO commands (session_id, sent_at, message)
VALUES (?, ?, ?)`

	selectSessionsSQL = `
SELECT
    id,
    started_at,
    remote_addr
FROM sessions
ORDER BY started_at`

	selectFramesSQL = `
SELECT
    seq,
    received_at,
    image_bytes,
    ax, ay, az,
    gx, gy, gz
FROM frames
WHERE
    session_id = ?
ORDER BY seq`

	selectCommandsSQL = `
SELECT
    sent_at,
    message
FROM commands
WHERE
    session_id = ?
ORDER BY id`
)

//go:embed schema.sql
var schemaSQL string
