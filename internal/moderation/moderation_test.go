package moderation

import (
	"context"
	"sync"
	"testing"
	"time"

	"bulletin/internal/clock"
	"bulletin/internal/models"
	"bulletin/internal/store"
	"bulletin/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T, opts ...Option) (*Service, *store.Store, *clock.Manual) {
	t.Helper()
	st, _ := testutil.NewStore(t)
	clk := testutil.NewClock()
	return NewService(st, clk, opts...), st, clk
}

func TestSubmitRegistration(t *testing.T) {
	svc, st, _ := newService(t, WithCodeSource(testutil.Codes("123456")))
	ctx := context.Background()

	c := testutil.Candidate(1, "Petrov", "Ivan")
	c.MiddleName = ""
	member, err := svc.SubmitRegistration(ctx, c)
	require.NoError(t, err)

	assert.Equal(t, "123456", member.AccountCode)
	assert.Equal(t, models.DefaultBio, member.Bio)
	assert.False(t, member.IsAdmin)
	assert.Nil(t, member.BannedUntil)

	snap := st.Read()
	require.Len(t, snap.Pending, 1)
	assert.Equal(t, member, snap.Pending[0])

	t.Run("already pending", func(t *testing.T) {
		_, err := svc.SubmitRegistration(ctx, c)
		assert.True(t, models.IsCode(err, models.CodeAlreadyRegistered))
		assert.Len(t, st.Read().Pending, 1)
	})

	t.Run("already approved", func(t *testing.T) {
		_, err := svc.SubmitRegistration(ctx, testutil.Candidate(testutil.AdminID, "A", "B"))
		assert.True(t, models.IsCode(err, models.CodeAlreadyRegistered))
	})

	t.Run("missing identity", func(t *testing.T) {
		_, err := svc.SubmitRegistration(ctx, testutil.Candidate(0, "A", "B"))
		assert.True(t, models.IsCode(err, models.CodeMalformedInput))
	})
}

func TestSubmitRegistration_DuplicateCodesAccepted(t *testing.T) {
	svc, st, _ := newService(t, WithCodeSource(testutil.Codes("777777")))
	ctx := context.Background()

	_, err := svc.SubmitRegistration(ctx, testutil.Candidate(1, "A", "A"))
	require.NoError(t, err)
	_, err = svc.SubmitRegistration(ctx, testutil.Candidate(2, "B", "B"))
	require.NoError(t, err)

	_, err = svc.Approve(ctx, 1)
	require.NoError(t, err)
	_, err = svc.Approve(ctx, 2)
	require.NoError(t, err)

	snap := st.Read()
	assert.Equal(t, int64(1), snap.ApprovedByCode("777777").UserID, "earliest holder wins")
}

func TestApproveAndReject(t *testing.T) {
	svc, st, _ := newService(t)
	ctx := context.Background()

	_, err := svc.SubmitRegistration(ctx, testutil.Candidate(1, "A", "A"))
	require.NoError(t, err)
	_, err = svc.SubmitRegistration(ctx, testutil.Candidate(2, "B", "B"))
	require.NoError(t, err)

	approved, err := svc.Approve(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), approved.UserID)

	rejected, err := svc.Reject(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rejected.UserID)

	snap := st.Read()
	assert.Empty(t, snap.Pending)
	assert.NotNil(t, snap.ApprovedMember(1))
	assert.Nil(t, snap.ApprovedMember(2))

	for name, op := range map[string]func(context.Context, int64) (models.Member, error){
		"approve": svc.Approve,
		"reject":  svc.Reject,
	} {
		t.Run(name+" unknown", func(t *testing.T) {
			_, err := op(ctx, 99)
			assert.True(t, models.IsCode(err, models.CodeNotFound))
		})
		t.Run(name+" already approved", func(t *testing.T) {
			_, err := op(ctx, 1)
			assert.True(t, models.IsCode(err, models.CodeNotFound))
		})
	}
}

func TestApprove_ConcurrentNeverDuplicates(t *testing.T) {
	svc, st, _ := newService(t)
	ctx := context.Background()
	_, err := svc.SubmitRegistration(ctx, testutil.Candidate(1, "A", "A"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Approve(ctx, 1); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	snap := st.Read()
	assert.Empty(t, snap.Pending)
	count := 0
	for _, m := range snap.Approved {
		if m.UserID == 1 {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestParseBanDuration(t *testing.T) {
	tests := []struct {
		raw     string
		want    time.Duration
		wantErr bool
	}{
		{raw: "7d", want: 7 * 24 * time.Hour},
		{raw: "24h", want: 24 * time.Hour},
		{raw: "-2h", want: -2 * time.Hour},
		{raw: "+1d", want: 24 * time.Hour},
		{raw: " 3h ", want: 3 * time.Hour},
		{raw: "0d", want: 0},
		{raw: "7", wantErr: true},
		{raw: "d", wantErr: true},
		{raw: "", wantErr: true},
		{raw: "7m", wantErr: true},
		{raw: "1.5d", wantErr: true},
		{raw: "7 d", wantErr: true},
		{raw: "99999999999d", wantErr: true},
		{raw: "9223372036854775807h", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseBanDuration(tt.raw)
			if tt.wantErr {
				assert.True(t, models.IsCode(err, models.CodeInvalidDuration))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBanLifecycle(t *testing.T) {
	svc, st, clk := newService(t)
	ctx := context.Background()
	testutil.Approve(t, st, testutil.Member(5, "555555", "Sidorov", "Petr"))

	res, err := svc.Ban(ctx, BanInput{Code: "555555", Duration: "1d"})
	require.NoError(t, err)
	assert.Equal(t, testutil.Epoch.Add(24*time.Hour), res.Until)
	assert.Equal(t, DefaultBanReason, res.Reason)

	banned, err := svc.IsBanned(ctx, 5)
	require.NoError(t, err)
	assert.True(t, banned)

	later := testutil.Epoch.Add(48 * time.Hour)
	banned, err = svc.IsBannedAt(ctx, 5, later)
	require.NoError(t, err)
	assert.False(t, banned)
	snap := st.Read()
	assert.Nil(t, snap.ApprovedMember(5).BannedUntil, "expired ban is cleared")

	banned, err = svc.IsBannedAt(ctx, 5, later)
	require.NoError(t, err)
	assert.False(t, banned)

	t.Run("reban replaces expiry", func(t *testing.T) {
		_, err := svc.Ban(ctx, BanInput{Code: "555555", Duration: "10d"})
		require.NoError(t, err)
		clk.Advance(time.Hour)
		res, err := svc.Ban(ctx, BanInput{Code: "555555", Duration: "1h", Reason: "spam"})
		require.NoError(t, err)
		snap := st.Read()
		assert.Equal(t, clk.Now().Add(time.Hour), *snap.ApprovedMember(5).BannedUntil)
		assert.Equal(t, "spam", res.Reason)
	})

	t.Run("unban is idempotent", func(t *testing.T) {
		m, err := svc.Unban(ctx, "555555")
		require.NoError(t, err)
		assert.Nil(t, m.BannedUntil)
		_, err = svc.Unban(ctx, "555555")
		require.NoError(t, err)
	})

	t.Run("unknown code", func(t *testing.T) {
		_, err := svc.Ban(ctx, BanInput{Code: "000001", Duration: "1d"})
		assert.True(t, models.IsCode(err, models.CodeNotFound))
		_, err = svc.Unban(ctx, "000001")
		assert.True(t, models.IsCode(err, models.CodeNotFound))
	})

	t.Run("bad duration", func(t *testing.T) {
		_, err := svc.Ban(ctx, BanInput{Code: "555555", Duration: "1w"})
		assert.True(t, models.IsCode(err, models.CodeInvalidDuration))
	})

	t.Run("unknown user is not banned", func(t *testing.T) {
		banned, err := svc.IsBanned(ctx, 424242)
		require.NoError(t, err)
		assert.False(t, banned)
	})
}

func TestBanFromComplaint(t *testing.T) {
	svc, st, _ := newService(t, WithComplaintBanDays(5))
	testutil.Approve(t, st, testutil.Member(5, "555555", "Sidorov", "Petr"))

	res, err := svc.BanFromComplaint(context.Background(), "555555")
	require.NoError(t, err)
	assert.Equal(t, testutil.Epoch.Add(5*24*time.Hour), res.Until)
}

func TestActive(t *testing.T) {
	svc, st, clk := newService(t)
	ctx := context.Background()
	testutil.Approve(t, st, testutil.Member(5, "555555", "Sidorov", "Petr"))

	_, err := svc.Active(ctx, 6)
	assert.True(t, models.IsCode(err, models.CodeNotRegistered))

	_, err = svc.Ban(ctx, BanInput{Code: "555555", Duration: "2h"})
	require.NoError(t, err)
	_, err = svc.Active(ctx, 5)
	assert.True(t, models.IsCode(err, models.CodeBanned))

	clk.Advance(3 * time.Hour)
	m, err := svc.Active(ctx, 5)
	require.NoError(t, err)
	assert.Nil(t, m.BannedUntil)
	snap := st.Read()
	assert.Nil(t, snap.ApprovedMember(5).BannedUntil)
}

func TestFileComplaint(t *testing.T) {
	svc, st, _ := newService(t)
	ctx := context.Background()
	testutil.Approve(t, st,
		testutil.Member(5, "555555", "Sidorov", "Petr"),
		testutil.Member(6, "666666", "Kozlova", "Maria"),
	)

	c, err := svc.FileComplaint(ctx, ComplaintInput{ComplainantID: 5, Target: "@user6", Reason: " rude "})
	require.NoError(t, err)
	assert.Equal(t, int64(6), c.TargetID)
	assert.Equal(t, "Kozlova Maria", c.TargetDisplayName)
	assert.Equal(t, "666666", c.TargetCode)
	assert.Equal(t, "Sidorov Petr", c.ComplainantDisplayName)
	assert.Equal(t, "rude", c.Reason)
	assert.Equal(t, models.ComplaintStatusNew, c.Status)
	assert.Equal(t, testutil.Epoch, c.Timestamp)

	_, err = svc.FileComplaint(ctx, ComplaintInput{ComplainantID: 5, Target: "666666", Reason: "again"})
	require.NoError(t, err)

	recent := svc.RecentComplaints(10)
	require.Len(t, recent, 2)
	assert.Equal(t, "again", recent[0].Reason)
	assert.Len(t, svc.RecentComplaints(1), 1)

	tests := []struct {
		name string
		in   ComplaintInput
		code string
	}{
		{"not registered", ComplaintInput{ComplainantID: 9, Target: "666666"}, models.CodeNotRegistered},
		{"unknown target", ComplaintInput{ComplainantID: 5, Target: "nobody"}, models.CodeNotFound},
		{"self", ComplaintInput{ComplainantID: 5, Target: "555555"}, models.CodeMalformedInput},
		{"empty target", ComplaintInput{ComplainantID: 5, Target: " "}, models.CodeMalformedInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.FileComplaint(ctx, tt.in)
			assert.True(t, models.IsCode(err, tt.code), "got %v", err)
		})
	}
	assert.Len(t, st.Read().Complaints, 2)

	t.Run("banned complainant with empty target", func(t *testing.T) {
		_, err := svc.Ban(ctx, BanInput{Code: "555555", Duration: "1d"})
		require.NoError(t, err)
		_, err = svc.FileComplaint(ctx, ComplaintInput{ComplainantID: 5, Target: " @ "})
		assert.True(t, models.IsCode(err, models.CodeBanned), "got %v", err)
		assert.Len(t, st.Read().Complaints, 2)
	})
}

func TestDirectory(t *testing.T) {
	svc, st, _ := newService(t)
	ctx := context.Background()
	testutil.Approve(t, st, testutil.Member(5, "555555", "Sidorov", "Petr"))
	_, err := svc.Ban(ctx, BanInput{Code: "555555", Duration: "1d"})
	require.NoError(t, err)

	members := svc.Members()
	require.Len(t, members, 2)
	assert.False(t, members[0].Banned)
	assert.True(t, members[1].Banned)

	assert.ElementsMatch(t, []int64{testutil.AdminID, 5}, svc.Recipients())

	_, err = svc.Profile(77)
	assert.True(t, models.IsCode(err, models.CodeNotRegistered))
	m, err := svc.ProfileByCode("555555")
	require.NoError(t, err)
	assert.Equal(t, int64(5), m.UserID)
	_, err = svc.ProfileByCode("123123")
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	assert.True(t, svc.IsAdmin(testutil.AdminID))
	assert.False(t, svc.IsAdmin(5))
	assert.True(t, svc.IsApproved(5))
}
