package postgres

// schema is applied on Open. Every statement is idempotent.
const schema = `
create table if not exists projects (
	seq          bigserial,
	id           text primary key,
	name         text not null,
	description  text not null default '',
	ui           text not null default '',
	state        text not null default '',
	validation   text not null default '',
	git_provider text not null default '',
	repo_name    text not null default '',
	created_at   timestamptz not null
);

create table if not exists pages (
	seq         bigserial,
	id          text primary key,
	project_id  text not null references projects(id) on delete cascade,
	name        text not null default '',
	path        text not null,
	content     text not null default '',
	components  jsonb not null default '[]',
	apis        jsonb not null default '[]',
	description text not null default '',
	created_at  timestamptz not null,
	updated_at  timestamptz not null
);
create index if not exists pages_project_idx on pages (project_id, seq);

create table if not exists components (
	seq        bigserial,
	id         text primary key,
	project_id text not null references projects(id) on delete cascade,
	name       text not null,
	type       text not null,
	code       text not null default '',
	props      jsonb not null default '[]',
	style      jsonb not null default '{}',
	preview    text not null default '',
	created_at timestamptz not null,
	updated_at timestamptz not null
);
create index if not exists components_project_idx on components (project_id, seq);

create table if not exists chat_histories (
	entity_id  text primary key,
	messages   jsonb not null default '[]',
	updated_at timestamptz not null
);
`
