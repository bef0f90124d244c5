package core

import (
	"github.com/RecoveryAshes/linkgrab/internal/models"
)

// Aggregate 将验证结果按(来源, URL)出现展开为报告行
// 行顺序为来源插入顺序, 来源内为URL出现顺序; 同一URL被多个来源引用时各行结果相同。
// URL在results中不存在时返回 *models.ContractError, 不输出空白行
func Aggregate(links *models.SourceLinkMap, results map[string]models.VerificationResult) ([]models.VerificationRow, error) {
	rows := make([]models.VerificationRow, 0, links.Occurrences())
	for _, source := range links.Sources() {
		for _, url := range links.Links(source) {
			result, ok := results[url]
			if !ok {
				return nil, &models.ContractError{Source: source, URL: url}
			}
			rows = append(rows, models.VerificationRow{
				Sheet:              source,
				VerificationResult: result,
			})
		}
	}
	return rows, nil
}
