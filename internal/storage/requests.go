package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const requestSelect = `
	SELECT r.id, r.status, r.created_at, r.responded_at,
		s.id, s.name, s.email, s.avatar,
		v.id, v.name, v.email, v.avatar
	FROM partner_requests r
	JOIN students s ON s.id = r.sender_id
	JOIN students v ON v.id = r.receiver_id`

// CreatePartnerRequest records a pending request from senderID to
// receiverID. It returns ErrNotFound when either student is missing and
// ErrConflict when the same request is already pending.
func (s *Store) CreatePartnerRequest(id, senderID, receiverID string) (PartnerRequest, error) {
	if err := s.requireExists("students", senderID); err != nil {
		return PartnerRequest{}, fmt.Errorf("sender %s: %w", senderID, err)
	}
	if err := s.requireExists("students", receiverID); err != nil {
		return PartnerRequest{}, fmt.Errorf("receiver %s: %w", receiverID, err)
	}

	_, err := s.db.Exec(`INSERT INTO partner_requests (id, sender_id, receiver_id, status, created_at) VALUES (?, ?, ?, 'pending', ?)`,
		id, senderID, receiverID, formatTime(time.Now()))
	if isUniqueViolation(err) {
		return PartnerRequest{}, fmt.Errorf("request from %s to %s already pending: %w", senderID, receiverID, ErrConflict)
	}
	if err != nil {
		return PartnerRequest{}, err
	}
	return s.GetPartnerRequest(id)
}

func (s *Store) GetPartnerRequest(id string) (PartnerRequest, error) {
	r, err := scanRequest(s.db.QueryRow(requestSelect+` WHERE r.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return PartnerRequest{}, ErrNotFound
	}
	return r, err
}

// PendingPartnerRequests returns the pending requests studentID has sent or
// received, oldest first.
func (s *Store) PendingPartnerRequests(studentID string) ([]PartnerRequest, error) {
	rows, err := s.db.Query(requestSelect+`
		WHERE r.status = 'pending' AND (r.sender_id = ? OR r.receiver_id = ?)
		ORDER BY r.rowid`, studentID, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []PartnerRequest{}
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// RespondPartnerRequest sets a pending request to approved or rejected on
// behalf of responderID. Only the receiver may respond (ErrForbidden), and a
// request that was already answered yields ErrConflict.
func (s *Store) RespondPartnerRequest(id, responderID, status string) (PartnerRequest, error) {
	if status != RequestApproved && status != RequestRejected {
		return PartnerRequest{}, fmt.Errorf("invalid request status %q", status)
	}

	r, err := s.GetPartnerRequest(id)
	if err != nil {
		return PartnerRequest{}, err
	}
	if r.Receiver.ID != responderID {
		return PartnerRequest{}, fmt.Errorf("student %s cannot answer request %s: %w", responderID, id, ErrForbidden)
	}

	res, err := s.db.Exec(`UPDATE partner_requests SET status = ?, responded_at = ? WHERE id = ? AND status = 'pending'`,
		status, formatTime(time.Now()), id)
	if err := requireRowsAffected(res, err); errors.Is(err, ErrNotFound) {
		return PartnerRequest{}, fmt.Errorf("request %s is already %s: %w", id, r.Status, ErrConflict)
	} else if err != nil {
		return PartnerRequest{}, err
	}
	return s.GetPartnerRequest(id)
}

func scanRequest(sc scanner) (PartnerRequest, error) {
	var r PartnerRequest
	var createdAt, respondedAt string
	if err := sc.Scan(&r.ID, &r.Status, &createdAt, &respondedAt,
		&r.Sender.ID, &r.Sender.Name, &r.Sender.Email, &r.Sender.Avatar,
		&r.Receiver.ID, &r.Receiver.Name, &r.Receiver.Email, &r.Receiver.Avatar); err != nil {
		return PartnerRequest{}, err
	}
	var err error
	if r.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return PartnerRequest{}, fmt.Errorf("parsing created_at: %w", err)
	}
	if respondedAt != "" {
		t, err := time.Parse(time.RFC3339, respondedAt)
		if err != nil {
			return PartnerRequest{}, fmt.Errorf("parsing responded_at: %w", err)
		}
		r.RespondedAt = &t
	}
	return r, nil
}
