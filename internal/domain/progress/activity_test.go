package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/shared"
)

const (
	testUserID    = shared.UserID("7ed99bd0-87b2-4dbb-a97b-596c3f29c49b")
	testRoadmapID = shared.RoadmapID("flutter-developer")
)

func validEvent(kind ActivityKind) ActivityEvent {
	return ActivityEvent{
		Kind:       kind,
		UserID:     testUserID,
		RoadmapID:  testRoadmapID,
		XPEarned:   50,
		OccurredOn: day(0),
	}
}

func TestActivityEvent_Validate(t *testing.T) {
	t.Run("valid lesson event", func(t *testing.T) {
		assert.NoError(t, validEvent(KindLessonCompleted).Validate())
	})

	t.Run("unknown kind fails fast", func(t *testing.T) {
		ev := validEvent("TIKTOK_WATCHED")
		err := ev.Validate()
		require.Error(t, err)
		assert.True(t, shared.IsValidation(err))
	})

	t.Run("missing user", func(t *testing.T) {
		ev := validEvent(KindLessonCompleted)
		ev.UserID = ""
		assert.Error(t, ev.Validate())
	})

	t.Run("missing date", func(t *testing.T) {
		ev := validEvent(KindLessonCompleted)
		ev.OccurredOn = shared.Day{}
		assert.ErrorIs(t, ev.Validate(), shared.ErrValidation)
	})

	t.Run("negative xp", func(t *testing.T) {
		ev := validEvent(KindLessonCompleted)
		ev.XPEarned = -10
		assert.Error(t, ev.Validate())
	})

	t.Run("badge event requires badge name", func(t *testing.T) {
		ev := validEvent(KindBadgeEarned)
		assert.Error(t, ev.Validate())
		ev.BadgeEarned = "fast-learner"
		assert.NoError(t, ev.Validate())
	})

	t.Run("test score out of range", func(t *testing.T) {
		ev := validEvent(KindTestPassed)
		score := 130.0
		ev.TestScore = &score
		assert.Error(t, ev.Validate())
	})
}

func TestNormalize_Weights(t *testing.T) {
	tests := []struct {
		kind   ActivityKind
		points int
	}{
		{KindLessonCompleted, 1},
		{KindTestPassed, 2},
		{KindProjectSubmitted, 3},
		{KindStreakMaintained, 1},
		{KindBadgeEarned, 2},
		{KindRoadmapCompleted, 4},
		{KindPerfectScore, 3},
		{KindHelpGiven, 1},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			ev := validEvent(tt.kind)
			ev.BadgeEarned = "any" // satisfies the badge kind; ignored by others

			rec, err := Normalize(ev)
			require.NoError(t, err)
			assert.Equal(t, tt.points, rec.Points)
			assert.True(t, rec.Date.Equal(day(0)))
			assert.NotEmpty(t, rec.Tooltip)
		})
	}
}

func TestNormalize_UnknownKind(t *testing.T) {
	_, err := Normalize(validEvent("SOMETHING_ELSE"))
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestNormalize_TooltipIncludesContext(t *testing.T) {
	ev := validEvent(KindBadgeEarned)
	ev.BadgeEarned = "night-owl"
	rec, err := Normalize(ev)
	require.NoError(t, err)
	assert.Contains(t, rec.Tooltip, "night-owl")
	assert.Contains(t, rec.Tooltip, "+50 XP")

	score := 85.0
	ev = validEvent(KindTestPassed)
	ev.TestScore = &score
	rec, err = Normalize(ev)
	require.NoError(t, err)
	assert.Contains(t, rec.Tooltip, "85%")
}
