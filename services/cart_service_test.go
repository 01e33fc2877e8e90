package services_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tableshare/tableshare/models"
	"github.com/tableshare/tableshare/services"
)

func addInput(joined *services.JoinResult, menuID uint, version uint64, qty int, opts []services.OptionChoice) services.MutationInput {
	return services.MutationInput{
		SessionID:       joined.Session.ID,
		ParticipantID:   joined.Participant.ID,
		ExpectedVersion: version,
		Action:          services.ActionAdd,
		MenuID:          menuID,
		Quantity:        qty,
		Options:         opts,
	}
}

func TestCartVersionMonotonicity(t *testing.T) {
	f := setupFixture(t)
	joined := f.join(t, "alice")
	svc := services.NewCartService(f.DB)

	assert.Equal(t, uint64(0), joined.Cart.Version)

	for i := 0; i < 5; i++ {
		cart, err := svc.Apply(addInput(joined, f.Menu2.ID, uint64(i), 1, nil))
		require.NoError(t, err)
		assert.Equal(t, uint64(i+1), cart.Version)
	}
}

func TestCartConflictExactlyOneWinner(t *testing.T) {
	f := setupFixture(t)
	alice := f.join(t, "alice")
	bob := f.join(t, "bob")
	svc := services.NewCartService(f.DB)

	// Both believe the cart is at version 0.
	winner, err := svc.Apply(addInput(alice, f.Menu.ID, 0, 1, nil))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), winner.Version)

	_, err = svc.Apply(addInput(bob, f.Menu2.ID, 0, 1, nil))
	var conflict *services.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, uint64(0), conflict.ExpectedVersion)
	assert.Equal(t, uint64(1), conflict.CurrentVersion)
	require.NotNil(t, conflict.Cart)
	assert.Len(t, conflict.Cart.Items, 1)

	// Loser retries with the refreshed version; both effects end up present.
	retried, err := svc.Apply(addInput(bob, f.Menu2.ID, conflict.CurrentVersion, 1, nil))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), retried.Version)
	assert.Len(t, retried.Items, 2)
}

func TestCartMergeOnAdd(t *testing.T) {
	f := setupFixture(t)
	alice := f.join(t, "alice")
	svc := services.NewCartService(f.DB)

	cart, err := svc.Apply(addInput(alice, f.Menu.ID, 0, 1, nil))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), cart.Version)
	require.Len(t, cart.Items, 1)

	cart, err = svc.Apply(addInput(alice, f.Menu.ID, 1, 1, nil))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), cart.Version)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, 10000.0, cart.Items[0].LineTotal)
}

func TestCartNoMergeAcrossParticipantsOrOptions(t *testing.T) {
	f := setupFixture(t)
	alice := f.join(t, "alice")
	bob := f.join(t, "bob")
	svc := services.NewCartService(f.DB)

	hot := []services.OptionChoice{{GroupID: f.SpiceGrp.ID, ValueID: f.HotValue.ID}}

	cart, err := svc.Apply(addInput(alice, f.Menu.ID, 0, 1, nil))
	require.NoError(t, err)

	// Same item, different participant: separate line.
	cart, err = svc.Apply(addInput(bob, f.Menu.ID, 1, 1, nil))
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)

	// Same item and participant, different options: separate line.
	cart, err = svc.Apply(addInput(alice, f.Menu.ID, 2, 1, hot))
	require.NoError(t, err)
	assert.Len(t, cart.Items, 3)
	assert.Equal(t, 5500.0, cart.Items[2].UnitPrice)
}

func TestCartUpdateAndRemove(t *testing.T) {
	f := setupFixture(t)
	alice := f.join(t, "alice")
	svc := services.NewCartService(f.DB)

	cart, err := svc.Apply(addInput(alice, f.Menu.ID, 0, 1, nil))
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	cart, err = svc.Apply(services.MutationInput{
		SessionID:       alice.Session.ID,
		ParticipantID:   alice.Participant.ID,
		ExpectedVersion: 1,
		Action:          services.ActionUpdate,
		ItemID:          itemID,
		Quantity:        3,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.Equal(t, 15000.0, cart.Items[0].LineTotal)
	assert.Equal(t, 15000.0, cart.Subtotal)

	// Quantity zero is equivalent to REMOVE.
	cart, err = svc.Apply(services.MutationInput{
		SessionID:       alice.Session.ID,
		ParticipantID:   alice.Participant.ID,
		ExpectedVersion: 2,
		Action:          services.ActionUpdate,
		ItemID:          itemID,
		Quantity:        0,
	})
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Equal(t, uint64(3), cart.Version)
	assert.Equal(t, 0.0, cart.GrandTotal)
}

func TestCartUpdateUnknownItem(t *testing.T) {
	f := setupFixture(t)
	alice := f.join(t, "alice")
	svc := services.NewCartService(f.DB)

	_, err := svc.Apply(services.MutationInput{
		SessionID:       alice.Session.ID,
		ParticipantID:   alice.Participant.ID,
		ExpectedVersion: 0,
		Action:          services.ActionUpdate,
		ItemID:          9999,
		Quantity:        1,
	})
	var notFound *services.NotFoundError
	assert.ErrorAs(t, err, &notFound)

	_, err = svc.Apply(services.MutationInput{
		SessionID:       alice.Session.ID,
		ParticipantID:   alice.Participant.ID,
		ExpectedVersion: 0,
		Action:          services.ActionRemove,
		ItemID:          9999,
	})
	assert.ErrorAs(t, err, &notFound)

	// Failed mutations never advance the version.
	cart, err := services.NewCartService(f.DB).Get(alice.Session.ID, alice.Participant.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), cart.Version)
}

func TestCartInvalidOptionRejected(t *testing.T) {
	f := setupFixture(t)
	alice := f.join(t, "alice")
	svc := services.NewCartService(f.DB)

	_, err := svc.Apply(addInput(alice, f.Menu.ID, 0, 1,
		[]services.OptionChoice{{GroupID: 999, ValueID: 999}}))
	var validation *services.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestCartMutationOnClosedSession(t *testing.T) {
	f := setupFixture(t)
	alice := f.join(t, "alice")

	sessions := services.NewSessionService(f.DB)
	_, err := sessions.Close(alice.Session.ID, f.Store.ID)
	require.NoError(t, err)

	_, err = services.NewCartService(f.DB).Apply(addInput(alice, f.Menu.ID, 0, 1, nil))
	var stateErr *services.SessionStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, models.SessionClosed, stateErr.Status)
}

func TestCartMutationOnExpiredSession(t *testing.T) {
	f := setupFixture(t)
	alice := f.join(t, "alice")

	// Backdate activity past the TTL; the next touch must observe EXPIRED
	// and apply nothing.
	stale := time.Now().Add(-time.Duration(f.Store.SessionTTLMinutes+1) * time.Minute)
	require.NoError(t, f.DB.Model(&models.TableSession{}).
		Where("id = ?", alice.Session.ID).
		Update("last_activity_at", stale).Error)

	_, err := services.NewCartService(f.DB).Apply(addInput(alice, f.Menu.ID, 0, 1, nil))
	var stateErr *services.SessionStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, models.SessionExpired, stateErr.Status)

	var sess models.TableSession
	require.NoError(t, f.DB.First(&sess, alice.Session.ID).Error)
	assert.Equal(t, models.SessionExpired, sess.Status)

	var cart models.SharedCart
	require.NoError(t, f.DB.Where("session_id = ?", alice.Session.ID).First(&cart).Error)
	assert.Equal(t, uint64(0), cart.Version)
}

func TestCartTotalsRecomputedEachMutation(t *testing.T) {
	f := setupFixture(t)

	// Tax excluded for this store.
	require.NoError(t, f.DB.Model(&f.Store).Update("tax_included", false).Error)

	alice := f.join(t, "alice")
	svc := services.NewCartService(f.DB)

	cart, err := svc.Apply(addInput(alice, f.Menu.ID, 0, 1, nil))
	require.NoError(t, err)
	cart, err = svc.Apply(addInput(alice, f.Menu2.ID, 1, 1, nil))
	require.NoError(t, err)

	assert.Equal(t, 10000.0, cart.Subtotal)
	assert.Equal(t, 1000.0, cart.TaxAmount)
	assert.Equal(t, 11000.0, cart.GrandTotal)
}
