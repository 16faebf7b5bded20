package database

// Schema contains the SQL statements for the forum database, executed
// once at pool open. Every statement is idempotent so repeated startups
// are safe.
//
// Authorship-bearing tables (posts, comments, votes, saved_posts) carry
// two nullable identity columns with a CHECK that exactly one is set.
// Votes and saves additionally enforce at-most-one row per (post,
// identity) through partial unique indexes, one per identity column.
const Schema = `
-- users: Registered credential-holding accounts.
CREATE TABLE IF NOT EXISTS users (
    id            BIGSERIAL PRIMARY KEY,
    username      VARCHAR(32) UNIQUE NOT NULL,
    email         VARCHAR(255) UNIQUE NOT NULL,
    password_hash VARCHAR(255) NOT NULL,
    avatar        VARCHAR(500),
    bio           TEXT,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

-- personas: Alternate display identities, each owned by exactly one
-- user. The owner never changes after creation. Deleting a user
-- cascades to their personas.
CREATE TABLE IF NOT EXISTS personas (
    id         BIGSERIAL PRIMARY KEY,
    user_id    BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    name       VARCHAR(48) NOT NULL,
    avatar     VARCHAR(500),
    banner     VARCHAR(500),
    bio        TEXT,
    is_public  BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_personas_user_id ON personas(user_id);

-- communities: Named topic containers. Never deleted.
CREATE TABLE IF NOT EXISTS communities (
    id          BIGSERIAL PRIMARY KEY,
    name        VARCHAR(64) UNIQUE NOT NULL,
    description TEXT,
    rules       TEXT,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

-- posts: Content submitted to a community, authored by exactly one of
-- {user, persona}. upvotes/downvotes are denormalized counters kept in
-- step with the votes table inside each vote transaction.
CREATE TABLE IF NOT EXISTS posts (
    id                BIGSERIAL PRIMARY KEY,
    community_id      BIGINT NOT NULL REFERENCES communities(id),
    title             VARCHAR(200) NOT NULL,
    body              TEXT NOT NULL,
    image_url         VARCHAR(500),
    upvotes           INTEGER NOT NULL DEFAULT 0,
    downvotes         INTEGER NOT NULL DEFAULT 0,
    author_user_id    BIGINT REFERENCES users(id),
    author_persona_id BIGINT REFERENCES personas(id),
    created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT ck_post_exactly_one_author CHECK (
        (author_user_id IS NOT NULL AND author_persona_id IS NULL) OR
        (author_user_id IS NULL AND author_persona_id IS NOT NULL)
    )
);

CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at);
CREATE INDEX IF NOT EXISTS idx_posts_community_id ON posts(community_id);

-- comments: Threaded comments on a post. parent_comment_id forms a
-- forest; parents are restricted to earlier rows of the same post, so
-- cycles cannot occur.
CREATE TABLE IF NOT EXISTS comments (
    id                BIGSERIAL PRIMARY KEY,
    post_id           BIGINT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
    body              TEXT NOT NULL,
    author_user_id    BIGINT REFERENCES users(id),
    author_persona_id BIGINT REFERENCES personas(id),
    parent_comment_id BIGINT REFERENCES comments(id) ON DELETE CASCADE,
    created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT ck_comment_exactly_one_author CHECK (
        (author_user_id IS NOT NULL AND author_persona_id IS NULL) OR
        (author_user_id IS NULL AND author_persona_id IS NOT NULL)
    )
);

CREATE INDEX IF NOT EXISTS idx_comments_post_created ON comments(post_id, created_at);

-- votes: At most one row per (post, identity); value is +1 or -1.
-- Removing a vote deletes the row.
CREATE TABLE IF NOT EXISTS votes (
    id                  BIGSERIAL PRIMARY KEY,
    post_id             BIGINT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
    voted_by_user_id    BIGINT REFERENCES users(id),
    voted_by_persona_id BIGINT REFERENCES personas(id),
    value               INTEGER NOT NULL,
    CONSTRAINT ck_vote_value CHECK (value IN (-1, 1)),
    CONSTRAINT ck_vote_exactly_one_identity CHECK (
        (voted_by_user_id IS NOT NULL AND voted_by_persona_id IS NULL) OR
        (voted_by_user_id IS NULL AND voted_by_persona_id IS NOT NULL)
    )
);

CREATE UNIQUE INDEX IF NOT EXISTS uq_vote_user_per_post
    ON votes(post_id, voted_by_user_id) WHERE voted_by_persona_id IS NULL;
CREATE UNIQUE INDEX IF NOT EXISTS uq_vote_persona_per_post
    ON votes(post_id, voted_by_persona_id) WHERE voted_by_user_id IS NULL;
CREATE INDEX IF NOT EXISTS idx_votes_post_id ON votes(post_id);

-- saved_posts: Boolean save membership per (post, identity).
CREATE TABLE IF NOT EXISTS saved_posts (
    id                  BIGSERIAL PRIMARY KEY,
    post_id             BIGINT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
    saved_by_user_id    BIGINT REFERENCES users(id),
    saved_by_persona_id BIGINT REFERENCES personas(id),
    saved_at            TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT ck_saved_exactly_one_identity CHECK (
        (saved_by_user_id IS NOT NULL AND saved_by_persona_id IS NULL) OR
        (saved_by_user_id IS NULL AND saved_by_persona_id IS NOT NULL)
    )
);

CREATE UNIQUE INDEX IF NOT EXISTS uq_saved_user_per_post
    ON saved_posts(post_id, saved_by_user_id) WHERE saved_by_persona_id IS NULL;
CREATE UNIQUE INDEX IF NOT EXISTS uq_saved_persona_per_post
    ON saved_posts(post_id, saved_by_persona_id) WHERE saved_by_user_id IS NULL;
`
