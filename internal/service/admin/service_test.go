package admin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/physiome/admin-api/internal/model"
	"github.com/physiome/admin-api/internal/repository"
	"github.com/physiome/admin-api/internal/repository/memory"
	apperrors "github.com/physiome/admin-api/pkg/errors"
)

func setup(t *testing.T) (*Service, *memory.DB) {
	t.Helper()
	db := memory.New()
	store := memory.NewStore(db)
	return NewService(store.Users, store.Profiles, nil), db
}

func putUser(db *memory.DB, id string, role model.Role, status model.UserStatus, created time.Time) *model.User {
	u := &model.User{
		Base:         model.Base{ID: id, CreatedAt: created, UpdatedAt: created},
		Name:         id,
		Email:        id + "@example.com",
		Role:         role,
		Status:       status,
		PasswordHash: "$2a$10$secret",
	}
	db.PutUser(u)
	return u
}

func TestDashboardCounts_Empty(t *testing.T) {
	svc, _ := setup(t)

	counts, err := svc.DashboardCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &model.DashboardCounts{}, counts)
}

func TestDashboardCounts(t *testing.T) {
	svc, db := setup(t)
	now := time.Now()
	putUser(db, "t1", model.RoleTherapist, model.UserStatusPending, now)
	putUser(db, "t2", model.RoleTherapist, model.UserStatusApproved, now)
	putUser(db, "t3", model.RoleTherapist, model.UserStatusApproved, now)
	putUser(db, "t4", model.RoleTherapist, model.UserStatusRejected, now)
	putUser(db, "p1", model.RolePatient, model.UserStatusApproved, now)
	putUser(db, "a1", model.RoleAdmin, model.UserStatusApproved, now)

	counts, err := svc.DashboardCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &model.DashboardCounts{
		TotalTherapists:    4,
		PendingApprovals:   1,
		ApprovedTherapists: 2,
		RejectedTherapists: 1,
		TotalPatients:      1,
	}, counts)
}

func TestListTherapists_NewestFirst(t *testing.T) {
	svc, db := setup(t)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	putUser(db, "old", model.RoleTherapist, model.UserStatusApproved, base)
	putUser(db, "new", model.RoleTherapist, model.UserStatusPending, base.Add(time.Hour))
	putUser(db, "patient", model.RolePatient, model.UserStatusApproved, base.Add(2*time.Hour))

	list, err := svc.ListTherapists(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].ID)
	assert.Equal(t, "old", list[1].ID)

	pending, err := svc.ListPendingTherapists(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "new", pending[0].ID)

	patients, err := svc.ListPatients(context.Background())
	require.NoError(t, err)
	require.Len(t, patients, 1)
	assert.Equal(t, "patient", patients[0].ID)
}

func TestGetTherapist_NotFound(t *testing.T) {
	svc, db := setup(t)
	putUser(db, "p1", model.RolePatient, "", time.Now())

	_, err := svc.GetTherapist(context.Background(), "nonexistent")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
	assert.EqualError(t, err, "Therapist not found")

	_, err = svc.GetTherapist(context.Background(), "p1")
	assert.EqualError(t, err, "Therapist not found")
}

func TestGetPatient_WithoutProfileHasEmptyExtension(t *testing.T) {
	svc, db := setup(t)
	putUser(db, "p1", model.RolePatient, "", time.Now())

	details, err := svc.GetPatient(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", details.ID)
	assert.Equal(t, "", details.Gender)
	assert.Equal(t, model.EmergencyContact{}, details.EmergencyContact)
	assert.Equal(t, model.InsuranceInfo{}, details.InsuranceInfo)
}

func TestGetPatient_MergesProfile(t *testing.T) {
	svc, db := setup(t)
	putUser(db, "p1", model.RolePatient, "", time.Now())
	db.PutProfile(&model.PatientProfile{
		UserID:           "p1",
		Gender:           "female",
		Allergies:        "penicillin",
		EmergencyContact: model.EmergencyContact{Name: "Kiran", Relationship: "spouse", Phone: "555"},
	})

	details, err := svc.GetPatient(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "female", details.Gender)
	assert.Equal(t, "penicillin", details.Allergies)
	assert.Equal(t, "Kiran", details.EmergencyContact.Name)
}

func TestApproveReject_OnlyStatusChanges(t *testing.T) {
	svc, db := setup(t)
	original := putUser(db, "t1", model.RoleTherapist, model.UserStatusPending, time.Now())

	transitions := []struct {
		run  func(context.Context, string) (*Result, error)
		want model.UserStatus
		msg  string
	}{
		{svc.ApproveTherapist, model.UserStatusApproved, "Therapist approved successfully"},
		{svc.ApproveTherapist, model.UserStatusApproved, "Therapist approved successfully"},
		{svc.RejectTherapist, model.UserStatusRejected, "Therapist rejected successfully"},
		{svc.RejectTherapist, model.UserStatusRejected, "Therapist rejected successfully"},
		{svc.ApproveTherapist, model.UserStatusApproved, "Therapist approved successfully"},
	}

	for _, tr := range transitions {
		res, err := tr.run(context.Background(), "t1")
		require.NoError(t, err)
		assert.Equal(t, tr.msg, res.Message)
		assert.Equal(t, tr.want, res.User.Status)

		got, err := svc.GetTherapist(context.Background(), "t1")
		require.NoError(t, err)
		assert.Equal(t, tr.want, got.Status)
		assert.Equal(t, original.Name, got.Name)
		assert.Equal(t, original.Email, got.Email)
		assert.Equal(t, original.Role, got.Role)
	}
}

func TestApproveTherapist_PatientIsNotFound(t *testing.T) {
	svc, db := setup(t)
	putUser(db, "p1", model.RolePatient, "", time.Now())

	_, err := svc.ApproveTherapist(context.Background(), "p1")
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestDeletePatient(t *testing.T) {
	t.Run("user and profile", func(t *testing.T) {
		svc, db := setup(t)
		putUser(db, "p1", model.RolePatient, "", time.Now())
		db.PutProfile(&model.PatientProfile{UserID: "p1"})

		res, err := svc.DeletePatient(context.Background(), "p1")
		require.NoError(t, err)
		assert.Equal(t, "Patient deleted successfully", res.Message)
		assert.False(t, db.HasUser("p1"))
		assert.False(t, db.HasProfile("p1"))
	})

	t.Run("user without profile", func(t *testing.T) {
		svc, db := setup(t)
		putUser(db, "p1", model.RolePatient, "", time.Now())

		_, err := svc.DeletePatient(context.Background(), "p1")
		require.NoError(t, err)
		assert.False(t, db.HasUser("p1"))
	})

	t.Run("therapist id", func(t *testing.T) {
		svc, db := setup(t)
		putUser(db, "t1", model.RoleTherapist, model.UserStatusPending, time.Now())

		_, err := svc.DeletePatient(context.Background(), "t1")
		assert.EqualError(t, err, "Patient not found")
		assert.True(t, db.HasUser("t1"))
	})
}

func TestDeleteTherapist(t *testing.T) {
	svc, db := setup(t)
	putUser(db, "t1", model.RoleTherapist, model.UserStatusPending, time.Now())

	res, err := svc.DeleteTherapist(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "Therapist deleted successfully", res.Message)
	assert.Nil(t, res.User)
	assert.False(t, db.HasUser("t1"))
}

func TestManageUser(t *testing.T) {
	t.Run("delete patient cascades profile", func(t *testing.T) {
		svc, db := setup(t)
		putUser(db, "p1", model.RolePatient, "", time.Now())
		db.PutProfile(&model.PatientProfile{UserID: "p1", Gender: "male"})

		res, err := svc.ManageUser(context.Background(), "p1", "DELETE", true)
		require.NoError(t, err)
		assert.Equal(t, "Patient deleted successfully", res.Message)
		assert.False(t, db.HasUser("p1"))
		assert.False(t, db.HasProfile("p1"))
	})

	t.Run("delete therapist", func(t *testing.T) {
		svc, db := setup(t)
		putUser(db, "t1", model.RoleTherapist, model.UserStatusApproved, time.Now())

		res, err := svc.ManageUser(context.Background(), "t1", "DELETE", true)
		require.NoError(t, err)
		assert.Equal(t, "Therapist deleted successfully", res.Message)
	})

	t.Run("delete needs permanent", func(t *testing.T) {
		svc, db := setup(t)
		putUser(db, "t1", model.RoleTherapist, model.UserStatusApproved, time.Now())

		_, err := svc.ManageUser(context.Background(), "t1", "DELETE", false)
		assert.True(t, apperrors.Is(err, apperrors.KindBadRequest))
		assert.True(t, db.HasUser("t1"))
	})

	t.Run("approve therapist", func(t *testing.T) {
		svc, db := setup(t)
		putUser(db, "t1", model.RoleTherapist, model.UserStatusPending, time.Now())

		res, err := svc.ManageUser(context.Background(), "t1", "APPROVE", false)
		require.NoError(t, err)
		assert.Equal(t, "User approved successfully", res.Message)
		assert.Equal(t, model.UserStatusApproved, res.User.Status)
	})

	t.Run("reject patient is a no-op", func(t *testing.T) {
		svc, db := setup(t)
		putUser(db, "p1", model.RolePatient, "", time.Now())

		res, err := svc.ManageUser(context.Background(), "p1", "REJECT", false)
		require.NoError(t, err)
		assert.Equal(t, "User rejected successfully", res.Message)
		assert.Equal(t, model.UserStatus(""), res.User.Status)
	})

	t.Run("unknown user", func(t *testing.T) {
		svc, _ := setup(t)

		_, err := svc.ManageUser(context.Background(), "missing", "APPROVE", false)
		assert.EqualError(t, err, "User not found")
	})

	t.Run("unknown action", func(t *testing.T) {
		svc, db := setup(t)
		putUser(db, "t1", model.RoleTherapist, model.UserStatusPending, time.Now())

		_, err := svc.ManageUser(context.Background(), "t1", "SUSPEND", false)
		assert.EqualError(t, err, "Invalid action")
	})
}

type failingUsers struct {
	repository.UserRepository
}

func (failingUsers) List(context.Context, model.UserFilter) ([]*model.User, error) {
	return nil, errors.New("connection refused")
}

func (failingUsers) Get(context.Context, string) (*model.User, error) {
	return nil, errors.New("connection refused")
}

func TestStoreFailuresAreTransient(t *testing.T) {
	svc := NewService(failingUsers{}, nil, nil)

	_, err := svc.ListTherapists(context.Background())
	assert.True(t, apperrors.Is(err, apperrors.KindTransient))
	assert.EqualError(t, err, "connection refused")

	_, err = svc.GetTherapist(context.Background(), "t1")
	assert.True(t, apperrors.Is(err, apperrors.KindTransient))
}

type callLog struct {
	calls []string
}

type recordingUsers struct {
	repository.UserRepository
	log *callLog
}

func (r recordingUsers) Delete(ctx context.Context, id string) error {
	r.log.calls = append(r.log.calls, "user:"+id)
	return r.UserRepository.Delete(ctx, id)
}

type recordingProfiles struct {
	repository.PatientProfileRepository
	log *callLog
}

func (r recordingProfiles) DeleteByUserID(ctx context.Context, userID string) error {
	r.log.calls = append(r.log.calls, "profile:"+userID)
	return r.PatientProfileRepository.DeleteByUserID(ctx, userID)
}

func TestDelete_RemovesProfileBeforeUser(t *testing.T) {
	db := memory.New()
	store := memory.NewStore(db)
	calls := &callLog{}
	svc := NewService(recordingUsers{store.Users, calls}, recordingProfiles{store.Profiles, calls}, nil)

	putUser(db, "p1", model.RolePatient, "", time.Now())
	db.PutProfile(&model.PatientProfile{UserID: "p1"})
	putUser(db, "t1", model.RoleTherapist, model.UserStatusApproved, time.Now())

	_, err := svc.DeletePatient(context.Background(), "p1")
	require.NoError(t, err)
	assert.False(t, db.HasProfile("p1"))

	_, err = svc.DeleteTherapist(context.Background(), "t1")
	require.NoError(t, err)

	_, err = svc.Execute(context.Background(), "t1", Command{Kind: CommandDelete, CascadeProfile: true})
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	// Therapists are deleted without touching profiles unless cascaded.
	assert.Equal(t, []string{"profile:p1", "user:p1", "user:t1"}, calls.calls)
}
