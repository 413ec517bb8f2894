package mediasoup

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
)

func TestDataProducerTestingSuite(t *testing.T) {
	suite.Run(t, new(DataProducerTestingSuite))
}

type DataProducerTestingSuite struct {
	TestingSuite
	transport1 *WebRtcTransport
	transport2 *WebRtcTransport
}

func (suite *DataProducerTestingSuite) SetupTest() {
	suite.TestingSuite.SetupTest()

	suite.transport1 = CreateWebRtcTransport(suite.T(), suite.router, true)
	suite.transport2 = CreateWebRtcTransport(suite.T(), suite.router, true)
}

func (suite *DataProducerTestingSuite) TestProduceData_Succeeds() {
	onNewDataProducer := suite.Fn()
	suite.transport1.OnNewDataProducer(mockFn[*DataProducer](onNewDataProducer))

	dataProducer := CreateDataProducer(suite.T(), suite.transport1)

	onNewDataProducer.ExpectCalledWith(dataProducer)
	suite.Equal(DataProducerSctp, dataProducer.Type())
	suite.Equal("foo", dataProducer.Label())
	suite.Equal("bar", dataProducer.Protocol())
	suite.False(dataProducer.Paused())
	suite.Equal(H{"foo": 1, "bar": "2"}, dataProducer.AppData())
	suite.Equal(&SctpStreamParameters{
		StreamId:       666,
		MaxRetransmits: 3,
		Ordered:        Bool(false),
	}, dataProducer.SctpStreamParameters())

	data := suite.fake.lastRequest("transport.produceData").data(suite.T())
	suite.Equal(dataProducer.Id(), data["dataProducerId"])
	suite.Equal("sctp", data["type"])
	suite.Equal("foo", data["label"])
	suite.Equal(map[string]any{"streamId": float64(666), "ordered": false, "maxRetransmits": float64(3)}, data["sctpStreamParameters"])
}

func (suite *DataProducerTestingSuite) TestProduceData_OrderedByDefault() {
	dataProducer, err := suite.transport1.ProduceData(context.Background(), DataProducerOptions{
		SctpStreamParameters: &SctpStreamParameters{StreamId: 1},
	})
	suite.NoError(err)
	suite.Equal(Bool(true), dataProducer.SctpStreamParameters().Ordered)

	// The returned parameters are a copy.
	dataProducer.SctpStreamParameters().StreamId = 7
	*dataProducer.SctpStreamParameters().Ordered = false
	suite.EqualValues(1, dataProducer.SctpStreamParameters().StreamId)
	suite.Equal(Bool(true), dataProducer.SctpStreamParameters().Ordered)
}

func (suite *DataProducerTestingSuite) TestProduceData_TypeError() {
	var typeErr *TypeError

	_, err := suite.transport1.ProduceData(context.Background(), DataProducerOptions{})
	suite.ErrorAs(err, &typeErr)

	_, err = suite.transport1.ProduceData(context.Background(), DataProducerOptions{
		SctpStreamParameters: &SctpStreamParameters{
			StreamId:          1,
			MaxPacketLifeTime: 1000,
			MaxRetransmits:    3,
		},
	})
	suite.ErrorAs(err, &typeErr)

	_, err = suite.transport1.ProduceData(context.Background(), DataProducerOptions{
		SctpStreamParameters: &SctpStreamParameters{
			StreamId:       1,
			Ordered:        Bool(true),
			MaxRetransmits: 3,
		},
	})
	suite.ErrorAs(err, &typeErr)

	suite.Empty(suite.fake.requests("transport.produceData"))
}

func (suite *DataProducerTestingSuite) TestProduceData_DuplicateId() {
	dataProducer := CreateDataProducer(suite.T(), suite.transport1)

	_, err := suite.transport2.ProduceData(context.Background(), DataProducerOptions{
		Id:                   dataProducer.Id(),
		SctpStreamParameters: &SctpStreamParameters{StreamId: 1},
	})
	suite.ErrorIs(err, ErrDuplicateId)
}

func (suite *DataProducerTestingSuite) TestDump() {
	dataProducer := CreateDataProducer(suite.T(), suite.transport1)

	dump, err := dataProducer.Dump(context.Background())
	suite.NoError(err)
	suite.Equal(dataProducer.Id(), dump.Id)

	stats, err := dataProducer.GetStats(context.Background())
	suite.NoError(err)
	suite.Empty(stats)
}

func (suite *DataProducerTestingSuite) TestPauseAndResume() {
	dataProducer := CreateDataProducer(suite.T(), suite.transport1)

	onPause := suite.Fn()
	onResume := suite.Fn()
	dataProducer.OnPause(onPause.Fn())
	dataProducer.OnResume(onResume.Fn())

	suite.NoError(dataProducer.Pause(context.Background()))
	suite.True(dataProducer.Paused())
	onPause.ExpectCalledTimes(1)

	suite.NoError(dataProducer.Resume(context.Background()))
	suite.False(dataProducer.Paused())
	onResume.ExpectCalledTimes(1)

	// Resuming a running data producer is silent.
	suite.NoError(dataProducer.Resume(context.Background()))
	onResume.ExpectCalledTimes(1)

	suite.Equal(dataProducer.Id(), suite.fake.lastRequest("dataProducer.pause").Internal.DataProducerId)
}

func (suite *DataProducerTestingSuite) TestClose() {
	dataProducer := CreateDataProducer(suite.T(), suite.transport1)
	dataConsumer, err := suite.transport2.ConsumeData(context.Background(), DataConsumerOptions{
		DataProducerId: dataProducer.Id(),
	})
	suite.NoError(err)

	onClose := suite.Fn()
	onDataProducerClose := suite.Fn()
	dataProducer.OnClose(onClose.Fn())
	dataConsumer.OnDataProducerClose(onDataProducerClose.Fn())

	dataProducer.Close()
	dataProducer.Close()

	onClose.ExpectCalledTimes(1)
	onDataProducerClose.ExpectCalledTimes(1)
	suite.True(dataProducer.Closed())
	suite.True(dataConsumer.Closed())

	req := suite.fake.waitRequests("transport.closeDataProducer", 1)[0]
	suite.Equal(suite.transport1.Id(), req.Internal.TransportId)
	suite.Equal(dataProducer.Id(), req.data(suite.T())["dataProducerId"])
	suite.Empty(suite.fake.requests("transport.closeDataConsumer"))

	_, err = suite.transport2.ConsumeData(context.Background(), DataConsumerOptions{
		DataProducerId: dataProducer.Id(),
	})
	suite.ErrorIs(err, ErrDataProducerNotFound)
}

func (suite *DataProducerTestingSuite) TestTransportClose() {
	dataProducer := CreateDataProducer(suite.T(), suite.transport1)

	onTransportClose := suite.Fn()
	onClose := suite.Fn()
	dataProducer.OnTransportClose(onTransportClose.Fn())
	dataProducer.OnClose(onClose.Fn())

	suite.transport1.Close()

	onTransportClose.ExpectCalledTimes(1)
	onClose.ExpectCalledTimes(1)
	suite.True(dataProducer.Closed())
	suite.Empty(suite.fake.requests("transport.closeDataProducer"))
}
