package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
    id TEXT PRIMARY KEY,
    content TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    priority INTEGER NOT NULL DEFAULT 1,
    project_id TEXT NOT NULL DEFAULT '',
    section_id TEXT NOT NULL DEFAULT '',
    parent_id TEXT NOT NULL DEFAULT '',
    labels TEXT NOT NULL DEFAULT '', -- JSON array of strings
    task_order INTEGER NOT NULL DEFAULT 0,
    due_date TEXT NOT NULL DEFAULT '',
    due_datetime TEXT NOT NULL DEFAULT '',
    due_string TEXT NOT NULL DEFAULT '',
    due_is_recurring INTEGER NOT NULL DEFAULT 0,
    due_timezone TEXT NOT NULL DEFAULT '',
    is_completed INTEGER NOT NULL DEFAULT 0,
    is_deleted INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS projects (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL DEFAULT '',
    parent_id TEXT NOT NULL DEFAULT '',
    color TEXT NOT NULL DEFAULT '',
    is_inbox INTEGER NOT NULL DEFAULT 0,
    is_favorite INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS sections (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL DEFAULT '',
    project_id TEXT NOT NULL DEFAULT '',
    section_order INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS labels (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL DEFAULT '',
    color TEXT NOT NULL DEFAULT '',
    is_favorite INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS events (
    id TEXT PRIMARY KEY,
    event_date DATETIME NOT NULL,
    event_type TEXT NOT NULL,
    object_type TEXT NOT NULL,
    object_id TEXT NOT NULL DEFAULT '',
    extra_data TEXT NOT NULL DEFAULT '{}', -- JSON
    initiator_id TEXT NOT NULL DEFAULT '',
    parent_item_id TEXT NOT NULL DEFAULT '',
    parent_project_id TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_events_object ON events(object_id);
CREATE INDEX IF NOT EXISTS idx_events_date ON events(event_date);

CREATE TABLE IF NOT EXISTS plans (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    horizon TEXT NOT NULL,
    active INTEGER NOT NULL DEFAULT 1,
    start_date DATE NOT NULL,
    end_date DATE NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_plans_active_horizon
    ON plans(horizon) WHERE active = 1;

CREATE TABLE IF NOT EXISTS plan_task_records (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    plan_id INTEGER NOT NULL,
    task_id TEXT NOT NULL,
    status TEXT NOT NULL,
    recorded_at DATETIME NOT NULL,
    FOREIGN KEY (plan_id) REFERENCES plans(id)
);

CREATE INDEX IF NOT EXISTS idx_plan_task_records_plan_task
    ON plan_task_records(plan_id, task_id);

CREATE TABLE IF NOT EXISTS schema_info (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS system_params (
    param TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// Migration defines a versioned database migration applied in order after
// the initial schema.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// Migrations is the list of migrations beyond the initial schema, in
// ascending version order.
var Migrations = []Migration{}
