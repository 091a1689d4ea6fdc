package factory_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/quest-engine/daylog"
	"github.com/warp/quest-engine/factory"
	"github.com/warp/quest-engine/generic"
)

func TestParseQuest_Defaults(t *testing.T) {
	f := factory.NewTemplateFactory()

	q, err := f.ParseQuest([]byte(`{"text":"  Water the plants ","penaltyMinutes":5}`))

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(q.ID, "dq-"))
	assert.Equal(t, "Water the plants", q.Text)
	assert.Equal(t, factory.DefaultQuestIcon, q.Icon)
	assert.Equal(t, daylog.CategoryMorning, q.Category)
	assert.Equal(t, []string{"all"}, q.AssignedTo)
}

func TestParseQuest_KeepsGivenFields(t *testing.T) {
	f := factory.NewTemplateFactory()

	q, err := f.ParseQuest([]byte(`{
		"id": "dq-11", "text": "Bed made", "icon": "🛏️", "category": "boss",
		"penaltyMinutes": 10, "hasNextDayConsequence": true, "nextDayPenalty": 15,
		"xpReward": 120, "assignedTo": ["kid-1", " "]
	}`))

	require.NoError(t, err)
	assert.Equal(t, "dq-11", q.ID)
	assert.Equal(t, daylog.CategoryBoss, q.Category)
	assert.Equal(t, 15, q.NextDayPenalty)
	assert.Equal(t, []string{"kid-1"}, q.AssignedTo)
}

func TestParseQuest_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		json  string
		field string
	}{
		{"missing text", `{"penaltyMinutes":5}`, "text"},
		{"bad category", `{"text":"x","category":"night"}`, "category"},
		{"negative minutes", `{"text":"x","penaltyMinutes":-1}`, "penaltyMinutes"},
		{"negative xp", `{"text":"x","xpReward":-5}`, "xpReward"},
		{"consequence without minutes", `{"text":"x","hasNextDayConsequence":true}`, "nextDayPenalty"},
	}

	f := factory.NewTemplateFactory()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ParseQuest([]byte(tt.json))

			require.Error(t, err)
			assert.ErrorIs(t, err, generic.ErrInvalidTemplate)
			var ve *generic.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestParseQuest_MalformedJSON(t *testing.T) {
	_, err := factory.NewTemplateFactory().ParseQuest([]byte(`{"text":`))

	assert.ErrorIs(t, err, generic.ErrInvalidTemplate)
	assert.True(t, generic.IsClientError(err))
}

func TestParseBonusMissionAndPenalty(t *testing.T) {
	f := factory.NewTemplateFactory()

	m, err := f.ParseBonusMission([]byte(`{"text":"Walk the dog","rewardMinutes":15,"multiUse":true}`))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(m.ID, "bm-"))
	assert.Equal(t, factory.DefaultBonusIcon, m.Icon)
	assert.True(t, m.MultiUse)

	p, err := f.ParsePenalty([]byte(`{"text":"Shouting","penaltyMinutes":10,"xpPenalty":20}`))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(p.ID, "pn-"))
	assert.Equal(t, 20, p.XPPenalty)

	_, err = f.ParseBonusMission([]byte(`{"text":"x","hasNextDayConsequence":true}`))
	assert.ErrorIs(t, err, generic.ErrInvalidTemplate)
	_, err = f.ParsePenalty([]byte(`{"text":"x","xpPenalty":-1}`))
	assert.ErrorIs(t, err, generic.ErrInvalidTemplate)
}

func TestParseTemplateSet_DefaultsRoundTrip(t *testing.T) {
	data, err := json.Marshal(daylog.DefaultTemplates())
	require.NoError(t, err)

	set, err := factory.NewTemplateFactory().ParseTemplateSet(data)

	require.NoError(t, err)
	assert.Equal(t, daylog.DefaultTemplates(), set)
}

func TestParseTemplateSet_RejectsDuplicatesAndReportsPosition(t *testing.T) {
	f := factory.NewTemplateFactory()

	_, err := f.ParseTemplateSet([]byte(`{"dailyQuests":[{"id":"a","text":"x"},{"id":"a","text":"y"}]}`))
	var ve *generic.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "dailyQuests[1].id", ve.Field)

	_, err = f.ParseTemplateSet([]byte(`{"penalties":[{"text":"ok"},{"text":""}]}`))
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "penalties[1].text", ve.Field)
}

func TestParseSettings(t *testing.T) {
	f := factory.NewTemplateFactory()

	s, err := f.ParseSettings([]byte(`{"baseTime":45,"offlineDaysSchedule":[0,6]}`))

	require.NoError(t, err)
	assert.Equal(t, 45, s.BaseTime)
	assert.Equal(t, 90, s.MaxTime, "default kept")
	assert.Equal(t, []int{0, 6}, s.OfflineDaysSchedule)
	assert.NotNil(t, s.OfflineDaysOverride)
	assert.Len(t, s.LevelThresholds, 5)
}

func TestParseSettings_Invalid(t *testing.T) {
	f := factory.NewTemplateFactory()

	_, err := f.ParseSettings([]byte(`{"baseTime":120}`))
	assert.ErrorIs(t, err, generic.ErrInvalidSettings)

	_, err = f.ParseSettings([]byte(`not json`))
	assert.ErrorIs(t, err, generic.ErrInvalidSettings)

	_, err = f.ParseSettings([]byte(`{"offlineDaysOverride":null,"offlineDaysSchedule":null}`))
	assert.NoError(t, err)
}
