package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/AleutianAI/soundings/pkg/ux"
	"github.com/AleutianAI/soundings/services/soundings/model"
	"github.com/spf13/cobra"
)

func runModels(cmd *cobra.Command, _ []string) {
	if jsonOutput {
		infos := modelInfos()
		if err := OutputJSON(ModelListResult{Models: infos, Count: len(infos)}); err != nil {
			fail(err)
		}
		return
	}
	fmt.Print(ux.Table([]string{"name", "dim", "params"}, modelRows()))
	ux.Tip("'soundings init' scaffolds priors for any of these")
}

func modelInfos() []ModelInfo {
	names := model.Names()
	infos := make([]ModelInfo, 0, len(names))
	for _, name := range names {
		m, err := model.Lookup(name)
		if err != nil {
			continue
		}
		infos = append(infos, ModelInfo{
			Name:   m.Name(),
			Dim:    m.Dim(),
			Params: m.ParamNames(),
		})
	}
	return infos
}

func modelRows() [][]string {
	infos := modelInfos()
	rows := make([][]string, len(infos))
	for i, info := range infos {
		rows[i] = []string{
			info.Name,
			strconv.Itoa(info.Dim),
			strings.Join(info.Params, ", "),
		}
	}
	return rows
}
