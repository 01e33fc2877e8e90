package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tableshare/tableshare/models"
	"github.com/tableshare/tableshare/realtime"
	"github.com/tableshare/tableshare/utils"
)

// Participant display colors, assigned in join order.
var participantPalette = []string{
	"#E57373", "#64B5F6", "#81C784", "#FFD54F",
	"#BA68C8", "#4DB6AC", "#F06292", "#A1887F",
}

type SessionService struct {
	DB *gorm.DB
}

func NewSessionService(db *gorm.DB) *SessionService {
	return &SessionService{DB: db}
}

// RequireOpenSession loads a session and applies lazy TTL expiry: the
// first caller to touch an overdue OPEN session flips it to EXPIRED and
// gets the terminal error, before any mutation runs. The expiry write
// happens on the base handle so a later rollback cannot undo it.
func RequireOpenSession(db *gorm.DB, sessionID uint) (*models.TableSession, *models.Store, error) {
	var sess models.TableSession
	if err := db.First(&sess, sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, &NotFoundError{Resource: "session"}
		}
		return nil, nil, err
	}

	var store models.Store
	if err := db.First(&store, sess.StoreID).Error; err != nil {
		return nil, nil, err
	}

	ttl := time.Duration(store.SessionTTLMinutes) * time.Minute
	now := time.Now()
	if sess.Expired(ttl, now) {
		if err := db.Model(&sess).Updates(map[string]interface{}{
			"status":    models.SessionExpired,
			"closed_at": now,
			"open_slot": nil,
		}).Error; err != nil {
			return nil, nil, err
		}
		return nil, nil, &SessionStateError{Status: models.SessionExpired}
	}
	if sess.Status != models.SessionOpen {
		return nil, nil, &SessionStateError{Status: sess.Status}
	}
	return &sess, &store, nil
}

// requireParticipant verifies the actor is an active member of the session.
func requireParticipant(db *gorm.DB, sessionID, participantID uint) (*models.Participant, error) {
	var p models.Participant
	err := db.Where("id = ? AND session_id = ?", participantID, sessionID).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &AuthError{Message: "participant does not belong to this session"}
		}
		return nil, err
	}
	if !p.Active {
		return nil, &AuthError{Message: "participant is no longer active"}
	}
	return &p, nil
}

type JoinInput struct {
	TableToken  string
	ShortCode   string
	Nickname    string
	Fingerprint string
	Language    string
}

type JoinResult struct {
	Session      models.TableSession `json:"session"`
	Participant  models.Participant  `json:"participant"`
	Cart         models.SharedCart   `json:"cart"`
	SessionToken string              `json:"session_token"`
}

// Join resolves a table locator, reuses or creates the OPEN session for
// that table (with its empty cart), and admits the caller. The first
// active participant becomes host.
func (s *SessionService) Join(in JoinInput) (*JoinResult, error) {
	if in.Nickname == "" {
		return nil, &ValidationError{Message: "nickname is required"}
	}

	table, err := s.resolveTable(in)
	if err != nil {
		return nil, err
	}

	var store models.Store
	if err := s.DB.First(&store, table.StoreID).Error; err != nil {
		return nil, err
	}
	ttl := time.Duration(store.SessionTTLMinutes) * time.Minute

	var result JoinResult
	runJoin := func() error {
		return s.DB.Transaction(func(tx *gorm.DB) error {
			now := time.Now()

			var sess models.TableSession
			err := tx.Where("table_id = ? AND status = ?", table.ID, models.SessionOpen).
				Order("id DESC").First(&sess).Error
			switch {
			case err == nil && sess.Expired(ttl, now):
				// Overdue session: retire it and start fresh below.
				if err := tx.Model(&sess).Updates(map[string]interface{}{
					"status":    models.SessionExpired,
					"closed_at": now,
					"open_slot": nil,
				}).Error; err != nil {
					return err
				}
				sess = models.TableSession{}
			case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
				return err
			}

			if sess.ID == 0 {
				open := true
				sess = models.TableSession{
					StoreID:        table.StoreID,
					TableID:        table.ID,
					Status:         models.SessionOpen,
					OpenSlot:       &open,
					CurrentRound:   1,
					LastActivityAt: now,
				}
				if err := tx.Create(&sess).Error; err != nil {
					return err
				}
				cart := models.SharedCart{SessionID: sess.ID, Version: 0}
				if err := tx.Create(&cart).Error; err != nil {
					return err
				}
			}

			var activeCount int64
			if err := tx.Model(&models.Participant{}).
				Where("session_id = ? AND active = ?", sess.ID, true).
				Count(&activeCount).Error; err != nil {
				return err
			}

			role := models.RoleGuest
			if activeCount == 0 {
				role = models.RoleHost
			}

			var totalCount int64
			if err := tx.Model(&models.Participant{}).
				Where("session_id = ?", sess.ID).Count(&totalCount).Error; err != nil {
				return err
			}

			participant := models.Participant{
				SessionID:   sess.ID,
				Nickname:    in.Nickname,
				Role:        role,
				Active:      true,
				Color:       participantPalette[int(totalCount)%len(participantPalette)],
				Fingerprint: in.Fingerprint,
				Language:    in.Language,
				JoinedAt:    now,
			}
			if err := tx.Create(&participant).Error; err != nil {
				return err
			}

			if err := tx.Model(&sess).Update("last_activity_at", now).Error; err != nil {
				return err
			}

			var cart models.SharedCart
			if err := tx.Preload("Items").
				Where("session_id = ?", sess.ID).First(&cart).Error; err != nil {
				return err
			}

			result.Session = sess
			result.Participant = participant
			result.Cart = cart
			return nil
		})
	}

	err = runJoin()
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Lost a concurrent first-join race on the (table_id, open_slot)
		// index; the winner's session exists now, so join it instead.
		err = runJoin()
	}
	if err != nil {
		return nil, err
	}

	token, err := utils.GenerateSessionToken(result.Session.ID, result.Participant.ID, ttl)
	if err != nil {
		return nil, err
	}
	result.SessionToken = token

	realtime.BroadcastParticipantJoined(result.Session.ID, result.Participant)
	return &result, nil
}

func (s *SessionService) resolveTable(in JoinInput) (*models.Table, error) {
	var table models.Table
	switch {
	case in.TableToken != "":
		claims, err := utils.ParseTableToken(in.TableToken)
		if err != nil {
			return nil, &AuthError{Message: err.Error()}
		}
		if err := s.DB.First(&table, claims.TableID).Error; err != nil {
			return nil, &NotFoundError{Resource: "table"}
		}
		if table.StoreID != claims.StoreID {
			return nil, &AuthError{Message: "table token store mismatch"}
		}
	case in.ShortCode != "":
		if err := s.DB.Where("short_code = ?", in.ShortCode).First(&table).Error; err != nil {
			return nil, &NotFoundError{Resource: "table"}
		}
	default:
		return nil, &ValidationError{Message: "table_token or short_code is required"}
	}
	return &table, nil
}

// Leave deactivates the participant. Cart lines they contributed stay.
func (s *SessionService) Leave(sessionID, participantID uint) error {
	participant, err := requireParticipant(s.DB, sessionID, participantID)
	if err != nil {
		return err
	}
	if err := s.DB.Model(participant).Update("active", false).Error; err != nil {
		return err
	}
	realtime.BroadcastParticipantLeft(sessionID, participantID)
	return nil
}

// Close terminates a session on staff request. Terminal; no resurrection.
func (s *SessionService) Close(sessionID, storeID uint) (*models.TableSession, error) {
	var sess models.TableSession
	if err := s.DB.First(&sess, sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "session"}
		}
		return nil, err
	}
	if sess.StoreID != storeID {
		return nil, &AuthError{Message: "session belongs to another store"}
	}
	if sess.Status != models.SessionOpen {
		return nil, &SessionStateError{Status: sess.Status}
	}

	now := time.Now()
	if err := s.DB.Model(&sess).Updates(map[string]interface{}{
		"status":    models.SessionClosed,
		"closed_at": now,
		"open_slot": nil,
	}).Error; err != nil {
		return nil, err
	}
	sess.Status = models.SessionClosed
	sess.ClosedAt = &now
	sess.OpenSlot = nil

	realtime.BroadcastSessionClosed(sessionID, models.SessionClosed)
	return &sess, nil
}

// SessionState is the authoritative snapshot a reconnecting client fetches.
type SessionState struct {
	Session      models.TableSession  `json:"session"`
	Participants []models.Participant `json:"participants"`
	Cart         models.SharedCart    `json:"cart"`
}

// Current returns the session, its participants and the cart. Used by
// clients to resynchronize after missed broadcasts.
func (s *SessionService) Current(sessionID, participantID uint) (*SessionState, error) {
	sess, _, err := RequireOpenSession(s.DB, sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := requireParticipant(s.DB, sessionID, participantID); err != nil {
		return nil, err
	}

	var state SessionState
	state.Session = *sess
	if err := s.DB.Where("session_id = ?", sessionID).
		Order("joined_at ASC").Find(&state.Participants).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Preload("Items").
		Where("session_id = ?", sessionID).First(&state.Cart).Error; err != nil {
		return nil, err
	}
	return &state, nil
}

// NewRound empties the cart as one versioned mutation and advances the
// round counter. Placement never clears the cart; this explicit action is
// the only way to start over. Hosts and staff may call it.
func (s *SessionService) NewRound(sessionID uint, expectedVersion uint64, actorParticipantID uint, staff bool) (*models.SharedCart, error) {
	sess, _, err := RequireOpenSession(s.DB, sessionID)
	if err != nil {
		return nil, err
	}
	if !staff {
		participant, err := requireParticipant(s.DB, sessionID, actorParticipantID)
		if err != nil {
			return nil, err
		}
		if participant.Role != models.RoleHost {
			return nil, &AuthError{Message: "only the host can start a new round"}
		}
	}

	var out models.SharedCart
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		var cart models.SharedCart
		if err := tx.Where("session_id = ?", sessionID).First(&cart).Error; err != nil {
			return err
		}
		if cart.Version != expectedVersion {
			return staleCartError(s.DB, cart.ID, expectedVersion)
		}

		if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}

		res := tx.Model(&models.SharedCart{}).
			Where("id = ? AND version = ?", cart.ID, expectedVersion).
			Updates(map[string]interface{}{
				"version":        expectedVersion + 1,
				"subtotal":       0,
				"tax_amount":     0,
				"service_charge": 0,
				"grand_total":    0,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return staleCartError(s.DB, cart.ID, expectedVersion)
		}

		if err := tx.Model(&models.TableSession{}).
			Where("id = ?", sessionID).
			Updates(map[string]interface{}{
				"current_round":    sess.CurrentRound + 1,
				"last_activity_at": time.Now(),
			}).Error; err != nil {
			return err
		}

		return tx.Preload("Items").First(&out, cart.ID).Error
	})
	if err != nil {
		return nil, err
	}

	realtime.BroadcastCartUpdate(sessionID, out)
	return &out, nil
}
