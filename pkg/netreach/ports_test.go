package netreach

import "testing"

func TestClassifyPorts(t *testing.T) {
	tests := []struct {
		name string
		open []int
		want ShareType
	}{
		{"smb via 445", []int{22, 445}, ShareSMB},
		{"smb via 139", []int{139}, ShareSMB},
		{"smb wins over afp", []int{548, 445}, ShareSMB},
		{"afp", []int{548}, ShareAFP},
		{"afp wins over nfs", []int{2049, 548}, ShareAFP},
		{"nfs", []int{2049}, ShareNFS},
		{"other", []int{22, 80, 443}, ShareOther},
		{"no ports", nil, ShareOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyPorts(tt.open); got != tt.want {
				t.Errorf("ClassifyPorts(%v) = %v, expected %v", tt.open, got, tt.want)
			}
		})
	}
}

func TestPortSet(t *testing.T) {
	basic, err := PortSet("basic")
	if err != nil {
		t.Fatalf("PortSet(basic) failed: %v", err)
	}
	if len(basic) != 9 {
		t.Errorf("basic set has %d ports, expected 9", len(basic))
	}

	deep, err := PortSet("deep")
	if err != nil {
		t.Fatalf("PortSet(deep) failed: %v", err)
	}
	if len(deep) <= len(basic) {
		t.Errorf("deep set (%d) should be larger than basic (%d)", len(deep), len(basic))
	}

	if _, err := PortSet("bogus"); err == nil {
		t.Error("PortSet(bogus) should fail")
	}
}

func TestShareKey(t *testing.T) {
	a := DiscoveredShare{Type: ShareSMB, Host: "NAS.local"}
	b := DiscoveredShare{Type: ShareSMB, Host: "nas.local"}
	if a.Key() != b.Key() {
		t.Errorf("keys differ for same share: %q vs %q", a.Key(), b.Key())
	}
	c := DiscoveredShare{Type: ShareNFS, Host: "nas.local"}
	if a.Key() == c.Key() {
		t.Error("keys collide across share types")
	}
}
