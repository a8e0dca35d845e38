package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"go-pizzeria-management/models"
)

func stageNames(p []bson.D) []string {
	names := make([]string, 0, len(p))
	for _, stage := range p {
		names = append(names, stage[0].Key)
	}
	return names
}

func stageValue(t *testing.T, stage bson.D) bson.D {
	t.Helper()
	v, ok := stage[0].Value.(bson.D)
	require.True(t, ok, "stage %s is not a document", stage[0].Key)
	return v
}

func lookup(d bson.D, key string) interface{} {
	for _, e := range d {
		if e.Key == key {
			return e.Value
		}
	}
	return nil
}

func TestSalesPipeline(t *testing.T) {
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	p := salesPipeline(DateRange{From: &from}, GroupByMonth, loc)
	assert.Equal(t, []string{"$match", "$group", "$sort", "$project"}, stageNames(p))

	match := stageValue(t, p[0])
	assert.Equal(t, models.StatusDelivered, lookup(match, "status"))
	assert.Equal(t, true, lookup(match, "active"))
	assert.Equal(t, bson.M{"$gte": from}, lookup(match, "created_at"))

	group := stageValue(t, p[1])
	id := lookup(group, "_id").(bson.D)
	dateToString := lookup(id, "$dateToString").(bson.D)
	assert.Equal(t, "%Y-%m", lookup(dateToString, "format"))
	assert.Equal(t, "America/Sao_Paulo", lookup(dateToString, "timezone"))
}

func TestSalesPipelineNeverSendsLocal(t *testing.T) {
	for _, loc := range []*time.Location{nil, time.Local, time.UTC} {
		group := stageValue(t, salesPipeline(DateRange{}, GroupByDay, loc)[1])
		dateToString := lookup(lookup(group, "_id").(bson.D), "$dateToString").(bson.D)
		assert.Equal(t, "UTC", lookup(dateToString, "timezone"))
	}
}

func TestTopProductsPipeline(t *testing.T) {
	p := topProductsPipeline(DateRange{}, 5)
	assert.Equal(t, []string{"$match", "$unwind", "$group", "$sort", "$limit", "$lookup", "$project"}, stageNames(p))

	match := stageValue(t, p[0])
	assert.Nil(t, lookup(match, "created_at"), "open range has no date filter")
	assert.Equal(t, int64(5), p[4][0].Value)
}

func TestChannelPipeline(t *testing.T) {
	to := time.Date(2025, 3, 31, 23, 59, 59, 0, time.UTC)
	p := channelPipeline(DateRange{To: &to})
	assert.Equal(t, []string{"$match", "$group", "$sort", "$project"}, stageNames(p))

	sort := stageValue(t, p[2])
	assert.Equal(t, -1, lookup(sort, "revenue"))
}

func TestGroupingLabelsAgree(t *testing.T) {
	at := time.Date(2025, 7, 4, 9, 41, 0, 0, time.UTC)
	assert.Equal(t, "2025-07-04 09:00", at.Format(GroupByHour.goLayout()))
	assert.Equal(t, "2025-07-04", at.Format(GroupByDay.goLayout()))
	assert.Equal(t, "2025-07", at.Format(GroupByMonth.goLayout()))
	assert.False(t, Grouping("week").Valid())
}

func TestMaxNumberPipelineToleratesLegacyNumbers(t *testing.T) {
	p := maxNumberPipeline()
	require.Equal(t, []string{"$group"}, stageNames(p))

	group := stageValue(t, p[0])
	maxExpr := lookup(group, "max").(bson.D)
	convert := lookup(lookup(maxExpr, "$max").(bson.D), "$convert").(bson.D)
	assert.Equal(t, "$number", lookup(convert, "input"))
	assert.Equal(t, "long", lookup(convert, "to"))
	assert.Equal(t, int64(0), lookup(convert, "onError"))
}
