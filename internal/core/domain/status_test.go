package domain

import "testing"

func TestDeriveStatus_Precedence(t *testing.T) {
	login := "500123"

	testCases := []struct {
		name string
		c    Challenge
		want DisplayStatus
	}{
		{
			name: "breach beats visible credentials",
			c: Challenge{
				Status:             StatusBreached,
				TradingAccountID:   &login,
				ContractSigned:     true,
				CredentialsVisible: true,
				CredentialsSent:    true,
			},
			want: DisplayBreached,
		},
		{
			name: "rejected",
			c:    Challenge{Status: StatusRejected, TradingAccountID: &login},
			want: DisplayRejected,
		},
		{
			name: "passed",
			c:    Challenge{Status: StatusPassed, TradingAccountID: &login, CredentialsVisible: true},
			want: DisplayPassed,
		},
		{
			name: "pending payment is hidden even with credentials",
			c:    Challenge{Status: StatusPendingPayment, TradingAccountID: &login},
			want: DisplayHidden,
		},
		{
			name: "no trading account",
			c:    Challenge{Status: StatusPendingCredentials},
			want: DisplayAwaitingCredentials,
		},
		{
			name: "empty trading account counts as missing",
			c:    Challenge{Status: StatusActive, TradingAccountID: func(s string) *string { return &s }("")},
			want: DisplayAwaitingCredentials,
		},
		{
			name: "contract not signed",
			c:    Challenge{Status: StatusActive, TradingAccountID: &login, CredentialsSent: true},
			want: DisplayAwaitingContract,
		},
		{
			name: "contract signed, nothing released",
			c:    Challenge{Status: StatusActive, TradingAccountID: &login, ContractSigned: true},
			want: DisplayContractSigned,
		},
		{
			name: "released via visible flag",
			c:    Challenge{Status: StatusActive, TradingAccountID: &login, ContractSigned: true, CredentialsVisible: true},
			want: DisplayCredentialsGiven,
		},
		{
			name: "released via sent flag",
			c:    Challenge{Status: StatusActive, TradingAccountID: &login, ContractSigned: true, CredentialsSent: true},
			want: DisplayCredentialsGiven,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DeriveStatus(&tc.c); got != tc.want {
				t.Errorf("DeriveStatus() = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestDisplayStatus_CredentialsDisplayable(t *testing.T) {
	for _, s := range []DisplayStatus{
		DisplayHidden, DisplayBreached, DisplayRejected, DisplayPassed,
		DisplayAwaitingCredentials, DisplayAwaitingContract, DisplayContractSigned,
	} {
		if s.CredentialsDisplayable() {
			t.Errorf("%s should not display credentials", s)
		}
	}
	if !DisplayCredentialsGiven.CredentialsDisplayable() {
		t.Error("credentials_given should display credentials")
	}
}

func TestChallenge_CurrentPhase(t *testing.T) {
	c := Challenge{}
	if c.CurrentPhase() != FirstPhase {
		t.Errorf("nil phase: got %d, want %d", c.CurrentPhase(), FirstPhase)
	}
	two := 2
	c.Phase = &two
	if c.CurrentPhase() != 2 {
		t.Errorf("got %d, want 2", c.CurrentPhase())
	}
}

func TestChallenge_CloneIsDeep(t *testing.T) {
	login := "1"
	phase := 1
	orig := &Challenge{ID: "c1", TradingAccountID: &login, Phase: &phase}

	cp := orig.Clone()
	*cp.TradingAccountID = "2"
	*cp.Phase = 2

	if *orig.TradingAccountID != "1" || *orig.Phase != 1 {
		t.Fatal("Clone shares pointers with the original")
	}
}

func TestParseSource(t *testing.T) {
	got, err := ParseSource("bolt")
	if err != nil || got != SourceBolt {
		t.Fatalf("ParseSource(bolt) = %v, %v", got, err)
	}
	if _, err := ParseSource("nope"); err == nil {
		t.Fatal("expected an error for an unknown source")
	}
}

func TestAuthUser_MetadataString(t *testing.T) {
	u := AuthUser{Metadata: map[string]any{"first_name": " Ada ", "age": 3}}
	if got := u.MetadataString("first_name"); got != "Ada" {
		t.Errorf("got %q, want Ada", got)
	}
	if got := u.MetadataString("age"); got != "" {
		t.Errorf("non-string metadata should read as empty, got %q", got)
	}
}
