package tui

import "testing"

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input    string
		wantName string
		wantArgs []string
		wantNil  bool
	}{
		{"/invoke 1", "/invoke", []string{"1"}, false},
		{"/invoke 1 python311", "/invoke", []string{"1", "python311"}, false},
		{"/clean 2", "/clean", []string{"2"}, false},
		{"/backup 1 snap", "/backup", []string{"1", "snap"}, false},
		{"/quit", "/quit", nil, false},
		{"not a command", "", nil, true},
		{"", "", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			cmd := ParseCommand(tt.input)
			if tt.wantNil {
				if cmd != nil {
					t.Errorf("expected nil, got %+v", cmd)
				}
				return
			}
			if cmd == nil {
				t.Fatal("expected command, got nil")
			}
			if cmd.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", cmd.Name, tt.wantName)
			}
			if len(cmd.Args) == 0 && len(tt.wantArgs) == 0 {
				return
			}
			if len(cmd.Args) != len(tt.wantArgs) {
				t.Errorf("Args = %v, want %v", cmd.Args, tt.wantArgs)
			}
		})
	}
}

func TestCommandID(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"/clean 2", 2, false},
		{"/backup 1 snap", 1, false},
		{"/clean", 0, true},
		{"/clean zero", 0, true},
		{"/clean 0", 0, true},
		{"/clean -4", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			cmd := ParseCommand(tt.input)
			if cmd == nil {
				t.Fatal("expected command, got nil")
			}
			id, err := cmd.ID()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ID() should fail for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ID(): %v", err)
			}
			if id != tt.want {
				t.Errorf("ID() = %d, want %d", id, tt.want)
			}
		})
	}
}

func TestCommandArg(t *testing.T) {
	cmd := ParseCommand("/backup 1 snap")
	if got := cmd.Arg(0); got != "1" {
		t.Errorf("Arg(0) = %q, want %q", got, "1")
	}
	if got := cmd.Arg(1); got != "snap" {
		t.Errorf("Arg(1) = %q, want %q", got, "snap")
	}
	if got := cmd.Arg(2); got != "" {
		t.Errorf("Arg(2) = %q, want empty", got)
	}
}
