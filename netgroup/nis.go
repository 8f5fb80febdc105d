package netgroup

import (
	"context"

	"github.com/erikmagkekse/netgroup-nfs/model"
	"github.com/erikmagkekse/netgroup-nfs/utils"
)

// NISSource reads the netgroup map from NIS with `ypcat -k`.
type NISSource struct {
	bin     string
	mapName string
	domain  string
	cmd     utils.Runner
}

func NewNISSource(bin, mapName, domain string) *NISSource {
	if bin == "" {
		bin = model.DefaultYpcatBin
	}
	if mapName == "" {
		mapName = model.DefaultNetgroupMap
	}
	return &NISSource{bin: bin, mapName: mapName, domain: domain, cmd: &utils.ShellRunner{}}
}

func (s *NISSource) Netgroups(ctx context.Context) (map[string]string, error) {
	args := []string{"-k"}
	if s.domain != "" {
		args = append(args, "-d", s.domain)
	}
	args = append(args, s.mapName)

	out, err := s.cmd.Run(ctx, s.bin, args...)
	if err != nil {
		return nil, err
	}
	return parseMapLines(out)
}
