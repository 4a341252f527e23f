package tenant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func prodEnv() Environment {
	return Environment{
		RootDomain:  "referrio.com",
		LocalSuffix: ".localhost",
		RootHosts:   []string{"referrio.com", "www.referrio.com", "localhost"},
		Production:  true,
	}
}

func devEnv() Environment {
	e := prodEnv()
	e.Production = false
	return e
}

func TestResolveProduction(t *testing.T) {
	env := prodEnv()

	cases := []struct {
		host string
		want string
	}{
		{"sunrise.referrio.com", "sunrise"},
		{"Sunrise.Referrio.COM", "sunrise"},
		{"sunrise.referrio.com:443", "sunrise"},
		{"  sunrise.referrio.com  ", "sunrise"},
		{"staging.sunrise.referrio.com", "staging"},
		{"referrio.com", Default},
		{"www.referrio.com", Default},
		{".referrio.com", Default},
		{"", Default},
		{"undefined", Default},
		{"null", Default},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Resolve(tc.host, env), "host %q", tc.host)
	}
}

func TestResolveDevelopment(t *testing.T) {
	env := devEnv()

	assert.Equal(t, "sunrise", Resolve("sunrise.localhost:3000", env))
	assert.Equal(t, "sunrise", Resolve("sunrise.localhost", env))
	assert.Equal(t, Default, Resolve("localhost:3000", env))
	assert.Equal(t, Default, Resolve("localhost", env))
}

func TestResolveCustomDomainPassthrough(t *testing.T) {
	// A host outside the platform domain resolves to itself; downstream
	// lookup decides whether it names a real agency.
	got := Resolve("Portal.SunriseCare.org", prodEnv())
	assert.Equal(t, "portal.sunrisecare.org", got)

	// Platform suffixes only apply in their own environment.
	assert.Equal(t, "sunrise.localhost", Resolve("sunrise.localhost", prodEnv()))
	assert.Equal(t, "sunrise.referrio.com", Resolve("sunrise.referrio.com", devEnv()))
}
