package sqlinline

// Postgres statements for generation_records.

const QRecordInsert = `--sql bad446b1-0707-4297-8bd2-1e28b8670818
insert into generation_records (
  id, prompt, model, length, shape, decoration, color, ref_image, status, images
)
values ($1, $2, $3, $4, $5, $6, $7, $8, $9, '[]'::jsonb)
returning created_at, updated_at;
`

// QRecordComplete only matches records still processing so the terminal write
// happens once.
const QRecordComplete = `--sql 239f6f44-b754-4745-9f4b-47f6309699fa
update generation_records
set status = $2,
    images = $3::jsonb,
    updated_at = now()
where id = $1
  and status = 'processing';
`

const QRecordStatus = `--sql 7ae0aa76-f331-46d8-b7e6-1b24c42d93a8
select status
from generation_records
where id = $1;
`

const QRecordGet = `--sql 212061f7-45cc-446a-95ef-5d9c0266239d
select id, prompt, model, length, shape, decoration, color, ref_image, status, images, created_at, updated_at
from generation_records
where id = $1;
`

const QRecordListRecent = `--sql debff25e-3c8e-4337-aa6b-8f8a69b2ab9c
select id, prompt, model, length, shape, decoration, color, ref_image, status, images, created_at, updated_at
from generation_records
order by created_at desc, id desc
limit $1;
`

// SQLite statements. Timestamps are unix milliseconds.

const QRecordInsertSQLite = `--sql e333cec5-14a4-4e65-b324-a726adfa7d24
insert into generation_records (
  id, prompt, model, length, shape, decoration, color, ref_image, status, images, created_at, updated_at
)
values (?, ?, ?, ?, ?, ?, ?, ?, ?, '[]', ?, ?);
`

const QRecordCompleteSQLite = `--sql 6942e341-cfec-4fac-b4d3-8c9d0ff47dc6
update generation_records
set status = ?,
    images = ?,
    updated_at = ?
where id = ?
  and status = 'processing';
`

const QRecordStatusSQLite = `--sql 85cae61b-4c75-4737-a1b0-61110ddedc5b
select status
from generation_records
where id = ?;
`

const QRecordGetSQLite = `--sql 369b2918-3ba8-45e7-b487-746ebe0648c8
select id, prompt, model, length, shape, decoration, color, ref_image, status, images, created_at, updated_at
from generation_records
where id = ?;
`

const QRecordListRecentSQLite = `--sql 3d61cf5b-aa5c-4c69-b489-e90366df30af
select id, prompt, model, length, shape, decoration, color, ref_image, status, images, created_at, updated_at
from generation_records
order by created_at desc, rowid desc
limit ?;
`
