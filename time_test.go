package reactor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTagDelayAdvancesTimeAndResetsMicrostep(t *testing.T) {
	base := Tag{Time: time.Unix(1000, 0), Microstep: 7}
	next := base.Delay(time.Second)
	assert.Equal(t, base.Time.Add(time.Second), next.Time)
	assert.Equal(t, uint64(0), next.Microstep)
}

func TestTagDelayZeroAdvancesMicrostepOnly(t *testing.T) {
	base := Tag{Time: time.Unix(1000, 0), Microstep: 7}
	next := base.Delay(0)
	assert.Equal(t, base.Time, next.Time)
	assert.Equal(t, uint64(8), next.Microstep)
}

func TestTagCompareOrdersByTimeThenMicrostep(t *testing.T) {
	t0 := time.Unix(1000, 0)
	t1 := time.Unix(1001, 0)

	a := Tag{Time: t0, Microstep: 5}
	b := Tag{Time: t0, Microstep: 6}
	c := Tag{Time: t1, Microstep: 0}

	assert.True(t, a.Before(b))
	assert.True(t, b.Before(c))
	assert.True(t, a.Before(c))
	assert.True(t, c.After(a))
	assert.True(t, a.Equal(Tag{Time: t0, Microstep: 5}))
}
