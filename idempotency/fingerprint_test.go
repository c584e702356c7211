package idempotency

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprintKeyOrderIndependent(t *testing.T) {
	a := Fingerprint("booking.create", "/api/booking", []byte(`{"client_id":1,"travelers":2}`))
	b := Fingerprint("booking.create", "/api/booking", []byte(`{"travelers":2,"client_id":1}`))
	assert.Equal(t, a, b)
}

func TestFingerprintDistinguishesRequests(t *testing.T) {
	base := Fingerprint("booking.create", "/api/booking", []byte(`{"client_id":1}`))

	assert.NotEqual(t, base,
		Fingerprint("booking.create", "/api/booking", []byte(`{"client_id":2}`)),
		"different body")
	assert.NotEqual(t, base,
		Fingerprint("booking.cancel", "/api/booking", []byte(`{"client_id":1}`)),
		"different operation")
	assert.NotEqual(t, base,
		Fingerprint("booking.create", "/api/bookings/7/cancel", []byte(`{"client_id":1}`)),
		"different path")
}

func TestFingerprintNonJSONBody(t *testing.T) {
	a := Fingerprint("upload", "/api/upload", []byte("not json at all"))
	b := Fingerprint("upload", "/api/upload", []byte("not json at all"))
	c := Fingerprint("upload", "/api/upload", []byte("something else"))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestFingerprintEmptyBody(t *testing.T) {
	a := Fingerprint("booking.cancel", "/api/bookings/9/cancel", nil)
	b := Fingerprint("booking.cancel", "/api/bookings/9/cancel", []byte{})
	assert.Equal(t, a, b)
}
