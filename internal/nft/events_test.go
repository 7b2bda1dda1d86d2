package nft

import "testing"

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{
			name: "mint",
			in:   NewMintEvent(MintLog{OwnerID: "alice.testnet", TokenIDs: []string{"0"}}),
			want: `EVENT_JSON:{"standard":"nep171","version":"nft-1.0.0","event":"nft_mint","data":[{"owner_id":"alice.testnet","token_ids":["0"]}]}`,
		},
		{
			name: "mint with memo",
			in:   NewMintEvent(MintLog{OwnerID: "a.testnet", TokenIDs: []string{"1", "2"}, Memo: String("hi")}),
			want: `EVENT_JSON:{"standard":"nep171","version":"nft-1.0.0","event":"nft_mint","data":[{"owner_id":"a.testnet","token_ids":["1","2"],"memo":"hi"}]}`,
		},
		{
			name: "transfer",
			in:   NewTransferEvent(TransferLog{OldOwnerID: "a.testnet", NewOwnerID: "b.testnet", TokenIDs: []string{"0"}}),
			want: `EVENT_JSON:{"standard":"nep171","version":"nft-1.0.0","event":"nft_transfer","data":[{"old_owner_id":"a.testnet","new_owner_id":"b.testnet","token_ids":["0"]}]}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Format(tt.in)
			if err != nil {
				t.Fatalf("Format: %v", err)
			}
			if got != tt.want {
				t.Errorf("Format() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestValue(t *testing.T) {
	if Value(nil) != "" {
		t.Error("Value(nil) not empty")
	}
	if Value(String("x")) != "x" {
		t.Error("Value(String(x)) != x")
	}
}
