package notify

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pavitra93/gym-billing-system/shared/config"
)

func TestNewChannel(t *testing.T) {
	ch, err := NewChannel(config.NotifyConfig{Channel: ChannelWhatsApp}, nil)
	require.NoError(t, err)
	require.IsType(t, &WhatsApp{}, ch)

	ch, err = NewChannel(config.NotifyConfig{Channel: ChannelLog}, nil)
	require.NoError(t, err)
	require.IsType(t, LogChannel{}, ch)

	_, err = NewChannel(config.NotifyConfig{Channel: "pigeon"}, nil)
	require.Error(t, err)
}
