package netreach

import "testing"

func TestBuildProbeURL(t *testing.T) {
	tests := []struct {
		name     string
		bookmark Bookmark
		profile  Profile
		want     string
		ok       bool
	}{
		{
			name: "default scheme and no port",
			bookmark: Bookmark{
				Addresses: NetworkAddressSet{Local: "nas.lan"},
			},
			profile: ProfileLocal,
			want:    "http://nas.lan",
			ok:      true,
		},
		{
			name: "http default port omitted",
			bookmark: Bookmark{
				Protocol:  "http",
				Port:      80,
				Addresses: NetworkAddressSet{Local: "nas.lan"},
			},
			profile: ProfileLocal,
			want:    "http://nas.lan",
			ok:      true,
		},
		{
			name: "https default port omitted",
			bookmark: Bookmark{
				Protocol:  "https",
				Port:      443,
				Addresses: NetworkAddressSet{Tailscale: "nas.tailnet.ts.net"},
			},
			profile: ProfileTailscale,
			want:    "https://nas.tailnet.ts.net",
			ok:      true,
		},
		{
			name: "non-default port kept",
			bookmark: Bookmark{
				Protocol:  "https",
				Port:      8443,
				Addresses: NetworkAddressSet{Local: "10.0.0.5"},
			},
			profile: ProfileLocal,
			want:    "https://10.0.0.5:8443",
			ok:      true,
		},
		{
			name: "http port 443 kept",
			bookmark: Bookmark{
				Protocol:  "http",
				Port:      443,
				Addresses: NetworkAddressSet{Local: "10.0.0.5"},
			},
			profile: ProfileLocal,
			want:    "http://10.0.0.5:443",
			ok:      true,
		},
		{
			name: "ipv6 literal bracketed",
			bookmark: Bookmark{
				Protocol:  "http",
				Port:      8080,
				Addresses: NetworkAddressSet{VPN: "fd7a:115c:a1e0::1"},
			},
			profile: ProfileVPN,
			want:    "http://[fd7a:115c:a1e0::1]:8080",
			ok:      true,
		},
		{
			name: "already bracketed ipv6 untouched",
			bookmark: Bookmark{
				Protocol:  "http",
				Addresses: NetworkAddressSet{Custom: "[fd7a:115c:a1e0::1]"},
			},
			profile: ProfileCustom,
			want:    "http://[fd7a:115c:a1e0::1]",
			ok:      true,
		},
		{
			name: "path rooted",
			bookmark: Bookmark{
				Protocol:  "http",
				Path:      "admin/login",
				Addresses: NetworkAddressSet{Local: "router.lan"},
			},
			profile: ProfileLocal,
			want:    "http://router.lan/admin/login",
			ok:      true,
		},
		{
			name: "rooted path untouched",
			bookmark: Bookmark{
				Protocol:  "https",
				Path:      "/dashboard",
				Addresses: NetworkAddressSet{Local: "grafana.lan"},
			},
			profile: ProfileLocal,
			want:    "https://grafana.lan/dashboard",
			ok:      true,
		},
		{
			name: "missing profile address",
			bookmark: Bookmark{
				Addresses: NetworkAddressSet{Local: "nas.lan"},
			},
			profile: ProfileVPN,
			want:    "",
			ok:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := BuildProbeURL(&tt.bookmark, tt.profile)
			if ok != tt.ok {
				t.Fatalf("BuildProbeURL ok = %v, expected %v", ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("BuildProbeURL = %q, expected %q", got, tt.want)
			}
		})
	}
}

func TestProbeable(t *testing.T) {
	probeable := []string{"http", "https", "", "HTTP"}
	for _, p := range probeable {
		if !Probeable(p) {
			t.Errorf("Probeable(%q) = false, expected true", p)
		}
	}

	blocked := []string{"smb", "afp", "nfs", "ssh", "postgresql", "vscode", "mailto", "file", "SMB"}
	for _, p := range blocked {
		if Probeable(p) {
			t.Errorf("Probeable(%q) = true, expected false", p)
		}
	}
}

func TestAddressFor(t *testing.T) {
	set := NetworkAddressSet{
		Local:     "192.168.1.10",
		Tailscale: "nas.tailnet.ts.net",
	}
	if got := set.AddressFor(ProfileLocal); got != "192.168.1.10" {
		t.Errorf("AddressFor(local) = %q", got)
	}
	if got := set.AddressFor(ProfileTailscale); got != "nas.tailnet.ts.net" {
		t.Errorf("AddressFor(tailscale) = %q", got)
	}
	if got := set.AddressFor(ProfileVPN); got != "" {
		t.Errorf("AddressFor(vpn) = %q, expected empty", got)
	}
	if set.Empty() {
		t.Error("Empty() = true for populated set")
	}
	if !(NetworkAddressSet{}).Empty() {
		t.Error("Empty() = false for zero set")
	}
}
