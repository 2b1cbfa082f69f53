package letter

import (
	"testing"
	"time"

	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFor(t *testing.T) {
	assert.Equal(t, LevelFirst, LevelFor(0))
	assert.Equal(t, LevelSecond, LevelFor(1))
	assert.Equal(t, LevelFinal, LevelFor(2))
	assert.Equal(t, LevelFinal, LevelFor(7))
}

func TestReference(t *testing.T) {
	at := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "OL-202406-1A2B3C4D", Reference("OL", at, "1a2b3c4d-5e6f-7081-92a3-b4c5d6e7f809"))
	assert.Equal(t, "WL-202406-AB", Reference("WL", at, "ab"))
}

func TestOfferRespond(t *testing.T) {
	at := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	o := &OfferLetter{Status: OfferGenerated}

	assert.True(t, errx.IsCode(o.Respond(OfferGenerated, "c", "", at), CodeInvalidResponse))
	require.NoError(t, o.Respond(OfferAccepted, "cand-user", " see you monday ", at))
	assert.Equal(t, "see you monday", o.ResponseNote)
	assert.True(t, errx.IsCode(o.Respond(OfferDeclined, "cand-user", "", at), CodeNotGenerated))
}
