package repository

import (
	"context"

	"social_chat/internal/domain"
	apperrors "social_chat/pkg/errors"
	"social_chat/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ContactRepository interface {
	Add(ctx context.Context, contact *domain.Contact) error
	List(ctx context.Context, ownerID int64) ([]*domain.Contact, error)
	Remove(ctx context.Context, ownerID, contactID int64) error
}

type contactRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewContactRepository(db *pgxpool.Pool, log logger.Logger) ContactRepository {
	return &contactRepository{db: db, log: log}
}

func (r *contactRepository) Add(ctx context.Context, contact *domain.Contact) error {
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx,
			`INSERT INTO contacts (owner_id, contact_id, first_name, last_name)
			 VALUES ($1, $2, $3, $4) RETURNING created_at`,
			contact.OwnerID, contact.ContactID, contact.FirstName, contact.LastName,
		).Scan(&contact.CreatedAt)
	})
	if err != nil {
		if mapped := mapPgError(err); mapped != err {
			return mapped
		}
		r.log.Error("Failed to add contact", "error", err, "owner_id", contact.OwnerID)
		return err
	}
	return nil
}

func (r *contactRepository) List(ctx context.Context, ownerID int64) ([]*domain.Contact, error) {
	query := `
		SELECT c.owner_id, c.contact_id, c.first_name, c.last_name, u.username, u.email, u.phone_number, c.created_at
		FROM contacts c
		INNER JOIN users u ON u.id = c.contact_id
		WHERE c.owner_id = $1
		ORDER BY c.first_name, c.last_name, c.contact_id
	`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		r.log.Error("Failed to list contacts", "error", err, "owner_id", ownerID)
		return nil, err
	}
	defer rows.Close()

	contacts := make([]*domain.Contact, 0)
	for rows.Next() {
		c := &domain.Contact{}
		err := rows.Scan(&c.OwnerID, &c.ContactID, &c.FirstName, &c.LastName, &c.Username, &c.Email, &c.Phone, &c.CreatedAt)
		if err != nil {
			r.log.Error("Failed to scan contact", "error", err)
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

func (r *contactRepository) Remove(ctx context.Context, ownerID, contactID int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM contacts WHERE owner_id = $1 AND contact_id = $2`, ownerID, contactID)
	if err != nil {
		r.log.Error("Failed to remove contact", "error", err, "owner_id", ownerID)
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrContactNotFound
	}
	return nil
}
