package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MKale112/devConnector/internal/apperr"
	"github.com/MKale112/devConnector/internal/models"
)

var errNotFound = apperr.NotFound("Profile not found").WithStatus(400)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// MergeFunc mutates p in place. exists reports whether p was loaded from the
// store or is a fresh document.
type MergeFunc func(p *models.Profile, exists bool) error

type Repository interface {
	GetByUser(ctx context.Context, userID string) (*models.Profile, error)
	List(ctx context.Context) ([]models.Profile, error)
	Upsert(ctx context.Context, userID string, newID string, now time.Time, merge MergeFunc) (*models.Profile, error)
	AddExperience(ctx context.Context, userID string, e models.Experience) (*models.Profile, error)
	RemoveExperience(ctx context.Context, userID, expID string) (*models.Profile, error)
	AddEducation(ctx context.Context, userID string, e models.Education) (*models.Profile, error)
	RemoveEducation(ctx context.Context, userID, eduID string) (*models.Profile, error)
	DeleteAccount(ctx context.Context, userID string) error
}

type repo struct{ db *sql.DB }

func NewRepository(db *sql.DB) Repository { return &repo{db: db} }

const selectProfile = `SELECT p.id, p.user_id, u.name, u.avatar,
	p.company, p.website, p.location, p.bio, p.status, p.skills, p.github_username,
	p.youtube, p.twitter, p.facebook, p.instagram, p.linkedin, p.created_at
	FROM profiles p JOIN users u ON u.id = p.user_id`

func scanProfile(sc interface{ Scan(...any) error }) (*models.Profile, error) {
	var p models.Profile
	var created int64
	err := sc.Scan(&p.ID, &p.User.ID, &p.User.Name, &p.User.Avatar,
		&p.Company, &p.Website, &p.Location, &p.Bio, &p.Status, &p.Skills, &p.GitHubUsername,
		&p.Social.YouTube, &p.Social.Twitter, &p.Social.Facebook, &p.Social.Instagram, &p.Social.LinkedIn,
		&created)
	if err != nil {
		return nil, err
	}
	p.CreatedAt = time.Unix(0, created).UTC()
	return &p, nil
}

func (r *repo) GetByUser(ctx context.Context, userID string) (*models.Profile, error) {
	return load(ctx, r.db, userID)
}

func load(ctx context.Context, q querier, userID string) (*models.Profile, error) {
	p, err := scanProfile(q.QueryRowContext(ctx, selectProfile+` WHERE p.user_id = ?`, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errNotFound
	} else if err != nil {
		return nil, fmt.Errorf("select profile: %w", err)
	}
	if err := loadChildren(ctx, q, p); err != nil {
		return nil, err
	}
	return p, nil
}

// loadChildren fills the nested lists, newest entry first.
func loadChildren(ctx context.Context, q querier, p *models.Profile) error {
	p.Experience = []models.Experience{}
	p.Education = []models.Education{}

	rows, err := q.QueryContext(ctx, `SELECT id,title,company,location,from_date,to_date,current,description
		FROM experience WHERE profile_id = ? ORDER BY seq DESC`, p.ID)
	if err != nil {
		return fmt.Errorf("select experience: %w", err)
	}
	for rows.Next() {
		var e models.Experience
		if err := rows.Scan(&e.ID, &e.Title, &e.Company, &e.Location, &e.From, &e.To, &e.Current, &e.Description); err != nil {
			rows.Close()
			return fmt.Errorf("scan experience: %w", err)
		}
		p.Experience = append(p.Experience, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = q.QueryContext(ctx, `SELECT id,school,degree,field_of_study,from_date,to_date,current,description
		FROM education WHERE profile_id = ? ORDER BY seq DESC`, p.ID)
	if err != nil {
		return fmt.Errorf("select education: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var e models.Education
		if err := rows.Scan(&e.ID, &e.School, &e.Degree, &e.FieldOfStudy, &e.From, &e.To, &e.Current, &e.Description); err != nil {
			return fmt.Errorf("scan education: %w", err)
		}
		p.Education = append(p.Education, e)
	}
	return rows.Err()
}

func (r *repo) List(ctx context.Context) ([]models.Profile, error) {
	rows, err := r.db.QueryContext(ctx, selectProfile+` ORDER BY p.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	out := []models.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		out = append(out, *p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Children are loaded after the cursor is closed: the pool holds one connection.
	for i := range out {
		if err := loadChildren(ctx, r.db, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *repo) Upsert(ctx context.Context, userID, newID string, now time.Time, merge MergeFunc) (*models.Profile, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	p, err := load(ctx, tx, userID)
	exists := true
	if errors.Is(err, apperr.ErrNotFound) {
		exists = false
		p = &models.Profile{ID: newID, User: models.UserRef{ID: userID}, CreatedAt: now}
	} else if err != nil {
		return nil, err
	}
	if err := merge(p, exists); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO profiles(id,user_id,company,website,location,bio,status,skills,
		github_username,youtube,twitter,facebook,instagram,linkedin,created_at)
		VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(user_id) DO UPDATE SET company=excluded.company, website=excluded.website,
		location=excluded.location, bio=excluded.bio, status=excluded.status, skills=excluded.skills,
		github_username=excluded.github_username, youtube=excluded.youtube, twitter=excluded.twitter,
		facebook=excluded.facebook, instagram=excluded.instagram, linkedin=excluded.linkedin`,
		p.ID, userID, p.Company, p.Website, p.Location, p.Bio, p.Status, p.Skills, p.GitHubUsername,
		p.Social.YouTube, p.Social.Twitter, p.Social.Facebook, p.Social.Instagram, p.Social.LinkedIn,
		p.CreatedAt.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}
	saved, err := load(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return saved, nil
}

// The nested-list mutations below are single statements keyed on the owner's
// profile, so concurrent edits of the same profile cannot lose each other.

func (r *repo) AddExperience(ctx context.Context, userID string, e models.Experience) (*models.Profile, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO experience(id,profile_id,title,company,location,from_date,to_date,current,description)
		SELECT ?, id, ?, ?, ?, ?, ?, ?, ? FROM profiles WHERE user_id = ?`,
		e.ID, e.Title, e.Company, e.Location, e.From, e.To, e.Current, e.Description, userID)
	if err != nil {
		return nil, fmt.Errorf("insert experience: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, errNotFound
	}
	return r.GetByUser(ctx, userID)
}

func (r *repo) RemoveExperience(ctx context.Context, userID, expID string) (*models.Profile, error) {
	_, err := r.db.ExecContext(ctx, `DELETE FROM experience
		WHERE id = ? AND profile_id = (SELECT id FROM profiles WHERE user_id = ?)`, expID, userID)
	if err != nil {
		return nil, fmt.Errorf("delete experience: %w", err)
	}
	return r.GetByUser(ctx, userID)
}

func (r *repo) AddEducation(ctx context.Context, userID string, e models.Education) (*models.Profile, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO education(id,profile_id,school,degree,field_of_study,from_date,to_date,current,description)
		SELECT ?, id, ?, ?, ?, ?, ?, ?, ? FROM profiles WHERE user_id = ?`,
		e.ID, e.School, e.Degree, e.FieldOfStudy, e.From, e.To, e.Current, e.Description, userID)
	if err != nil {
		return nil, fmt.Errorf("insert education: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, errNotFound
	}
	return r.GetByUser(ctx, userID)
}

func (r *repo) RemoveEducation(ctx context.Context, userID, eduID string) (*models.Profile, error) {
	_, err := r.db.ExecContext(ctx, `DELETE FROM education
		WHERE id = ? AND profile_id = (SELECT id FROM profiles WHERE user_id = ?)`, eduID, userID)
	if err != nil {
		return nil, fmt.Errorf("delete education: %w", err)
	}
	return r.GetByUser(ctx, userID)
}

// DeleteAccount removes posts, then the profile, then the user. Likes and
// comments the user left on other posts go with the user row.
func (r *repo) DeleteAccount(ctx context.Context, userID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, s := range []string{
		`DELETE FROM posts WHERE user_id = ?`,
		`DELETE FROM profiles WHERE user_id = ?`,
		`DELETE FROM users WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, s, userID); err != nil {
			return fmt.Errorf("delete account: %w", err)
		}
	}
	return tx.Commit()
}
