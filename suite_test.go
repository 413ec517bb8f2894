package mediasoup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// TestingSuite runs every test against its own fake worker and router.
type TestingSuite struct {
	*require.Assertions
	proxy suite.Suite

	worker *Worker
	fake   *fakeWorker
	router *Router
}

func (suite *TestingSuite) T() *testing.T {
	return suite.proxy.T()
}

func (suite *TestingSuite) SetT(t *testing.T) {
	suite.proxy.SetT(t)
	suite.Assertions = require.New(t)
}

func (suite *TestingSuite) SetS(s suite.TestingSuite) {
	suite.proxy.SetS(s)
}

func (suite *TestingSuite) Require() *require.Assertions {
	return suite.proxy.Require()
}

func (suite *TestingSuite) Assert() *assert.Assertions {
	return suite.proxy.Assert()
}

func (suite *TestingSuite) SetupTest() {
	suite.worker, suite.fake = newTestWorker(suite.T())
	suite.router = CreateRouter(suite.T(), suite.worker)
}

func (suite *TestingSuite) Fn() *MockFunc {
	return NewMockFunc(suite.T())
}
