package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    Packet
		wantErr bool
	}{
		{
			name: "login",
			line: "LOGIN;alice;1.4.2",
			want: Packet{Type: PacketLogin, Data: "alice;1.4.2"},
		},
		{
			name: "empty payload",
			line: "PING;",
			want: Packet{Type: PacketPing, Data: ""},
		},
		{
			name: "payload with inner delimiters",
			line: "MOVE;128;144;2;0",
			want: Packet{Type: PacketMove, Data: "128;144;2;0"},
		},
		{
			name:    "missing delimiter",
			line:    "PING",
			wantErr: true,
		},
		{
			name:    "unknown type tag",
			line:    "TELEPORT;1;2",
			wantErr: true,
		},
		{
			name:    "empty line",
			line:    "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLine(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPacketEncodeRoundTrip(t *testing.T) {
	p := Packet{Type: PacketChestOut, Data: "42;3"}
	got, err := ParseLine(p.Encode())
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestPacketFields(t *testing.T) {
	assert.Equal(t, []string{"42", "3"}, Packet{Type: PacketChestOut, Data: "42;3"}.Fields())
	assert.Nil(t, Packet{Type: PacketPing}.Fields())
}

func TestServerOnly(t *testing.T) {
	for _, serverSent := range []PacketType{
		PacketInit, PacketTiles, PacketTile, PacketEntities,
		PacketEntity, PacketAdd, PacketRemove, PacketPlayer,
		PacketGame, PacketNotify,
	} {
		assert.True(t, serverSent.ServerOnly(), serverSent.String())
	}
	for _, clientSent := range []PacketType{
		PacketLogin, PacketMove, PacketPickup, PacketChestIn,
		PacketChestOut, PacketSave, PacketDisconnect,
	} {
		assert.False(t, clientSent.ServerOnly(), clientSent.String())
	}
}

func TestDecodeMoveRequest(t *testing.T) {
	req, err := DecodeMoveRequest("128;144;2;1")
	require.NoError(t, err)
	assert.Equal(t, &MoveRequest{X: 128, Y: 144, Dir: 2, Level: 1}, req)

	_, err = DecodeMoveRequest("128;144;2")
	assert.Error(t, err)
	_, err = DecodeMoveRequest("128;abc;2;1")
	assert.Error(t, err)
}

func TestDecodeLoginRequest(t *testing.T) {
	req, err := DecodeLoginRequest("alice;1.4.2")
	require.NoError(t, err)
	assert.Equal(t, "alice", req.Username)
	assert.Equal(t, "1.4.2", req.Version)

	_, err = DecodeLoginRequest("alice")
	assert.Error(t, err)
	_, err = DecodeLoginRequest(";1.4.2")
	assert.Error(t, err)

	// Delimiter characters in a username would corrupt the entity
	// encodings and name lists every other client receives.
	for _, name := range []string{"al,ice", "al:ice", "al[ice]", "a b", "a~b"} {
		_, err = DecodeLoginRequest(name + ";1.4.2")
		assert.Error(t, err, name)
	}
	req, err = DecodeLoginRequest("Alice_2-b.c;1.4.2")
	require.NoError(t, err)
	assert.Equal(t, "Alice_2-b.c", req.Username)
}

func TestDecodeChestRequests(t *testing.T) {
	in, err := DecodeChestInRequest("7;apple~3")
	require.NoError(t, err)
	assert.Equal(t, &ChestInRequest{EntityID: 7, Item: "apple~3"}, in)

	out, err := DecodeChestOutRequest("7;2")
	require.NoError(t, err)
	assert.Equal(t, &ChestOutRequest{EntityID: 7, Index: 2}, out)

	_, err = DecodeChestInRequest("seven;apple")
	assert.Error(t, err)
	_, err = DecodeChestOutRequest("7")
	assert.Error(t, err)
}

func TestDecodePotionRequest(t *testing.T) {
	req, err := DecodePotionRequest("true;2")
	require.NoError(t, err)
	assert.True(t, req.Apply)
	assert.Equal(t, 2, req.Type)

	_, err = DecodePotionRequest("maybe;2")
	assert.Error(t, err)
}
