//go:build mssql || all_adapters

package mssql

import (
	"context"

	"github.com/fuseline-io/fuseline-engine/pkg/adapters/datasource"
)

func init() {
	datasource.Register(datasource.AdapterRegistration{
		Info: datasource.AdapterInfo{
			Type:        "mssql",
			DisplayName: "Microsoft SQL Server",
			Description: "Load tables from SQL Server 2017+ and Azure SQL Database",
		},
		Factory: func(ctx context.Context, config map[string]any) (datasource.TableLoader, error) {
			cfg, err := FromMap(config)
			if err != nil {
				return nil, err
			}
			return NewLoader(ctx, cfg, nil)
		},
	})
}
